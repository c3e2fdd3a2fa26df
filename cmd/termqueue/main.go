package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termqueue/core"
	"github.com/lixenwraith/termqueue/latency"
	"github.com/lixenwraith/termqueue/queue"
	"github.com/lixenwraith/termqueue/source/keys"
	"github.com/lixenwraith/termqueue/source/screen"
	"github.com/lixenwraith/termqueue/source/serial"
	"github.com/lixenwraith/termqueue/source/tty"
	"github.com/lixenwraith/termqueue/source/ws"
	"github.com/lixenwraith/termqueue/status"
	"github.com/lixenwraith/termqueue/terminal"
	"github.com/lixenwraith/termqueue/trace"
)

func main() {
	// Panic recovery on the main goroutine; producer goroutines recover through core.Go
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	if err := loadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "termqueue: %v\n", err)
		os.Exit(2)
	}
	cfg, err := loadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "termqueue: %v\n", err)
		os.Exit(2)
	}

	if logFile := setupLogging(cfg.Debug); logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "termqueue: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every source pipeline shares
type app struct {
	cfg  appConfig
	reg  *status.Registry
	rec  *latency.Recorder
	bell *bell
	out  io.Writer
}

func (a *app) queueOptions() []queue.Option {
	return []queue.Option{
		queue.WithRegistry(a.reg),
		queue.WithFlushObserver(a.rec.Observe),
	}
}

func run(cfg appConfig) error {
	a := &app{
		cfg: cfg,
		reg: status.NewRegistry(),
		rec: latency.NewRecorder(cfg.LatencyWindow),
		out: os.Stdout,
	}

	if cfg.Bell {
		b, err := newBell()
		if err != nil {
			// Non-fatal, the demo runs silent
			log.Printf("termqueue: bell disabled: %v", err)
		} else {
			a.bell = b
			defer b.close()
		}
	}

	// Raw-mode sources see ctrl+c as a key; the signal covers serial and ws
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("termqueue: source %s", cfg.Source)
	switch cfg.Source {
	case sourceScreen:
		return runScreen(ctx, a)
	case sourceRaw:
		src, err := terminal.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		core.SetRestore(func() { src.Close() })
		return runPipeline(ctx, a, src, terminal.Event.String, quitRaw)
	case sourceKeys:
		src, err := keys.Open(64)
		if err != nil {
			return err
		}
		defer src.Close()
		core.SetRestore(func() { src.Close() })
		return runPipeline(ctx, a, src, keys.Event.String, quitKeys)
	case sourceTTY:
		src, err := tty.Open(64)
		if err != nil {
			return err
		}
		defer src.Close()
		core.SetRestore(func() { src.Close() })
		return runPipeline(ctx, a, src, strconv.QuoteRune, quitTTY)
	case sourceSerial:
		src, err := serial.Open(serial.Config{Name: cfg.Device, Baud: cfg.Baud}, 1024)
		if err != nil {
			return err
		}
		defer src.Close()
		return runPipeline(ctx, a, src, func(b byte) string { return fmt.Sprintf("%02x", b) }, nil)
	case sourceWS:
		return runWS(ctx, a)
	}
	return fmt.Errorf("unknown source %q", cfg.Source)
}

// runPipeline starts a queue over src and consumes it until quit or shutdown
func runPipeline[E any](ctx context.Context, a *app, src queue.Source[E], format func(E) string, quit func(E) bool) error {
	return consumeQueue(ctx, a, src, newLineView(a.out, format), format, quit)
}

func consumeQueue[E any](ctx context.Context, a *app, src queue.Source[E], v view[E], format func(E) string, quit func(E) bool) error {
	tw, closeTrace, err := openTrace(a.cfg.Trace, format)
	if err != nil {
		return err
	}
	defer closeTrace()

	q, err := queue.Start(src, a.cfg.Queue, a.queueOptions()...)
	if err != nil {
		return err
	}

	c := &consumer[E]{
		view:     v,
		trace:    tw,
		bell:     a.bell,
		quit:     quit,
		received: a.reg.Ints.Get("consumer.batches"),
		publish:  func() { a.rec.Publish(a.reg) },
	}
	consumeErr := c.run(ctx, q)
	stopErr := q.Stop()

	log.Printf("termqueue: %s", a.rec.Summary())
	if consumeErr != nil {
		return consumeErr
	}
	return stopErr
}

func openTrace[E any](path string, format func(E) string) (*trace.Writer[E], func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace: %w", err)
	}
	w := trace.NewWriter(f, format)
	log.Printf("termqueue: tracing session %s to %s", w.Session(), path)
	return w, func() { f.Close() }, nil
}

func runScreen(ctx context.Context, a *app) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	core.SetRestore(s.Fini)

	src := screen.New(s, screen.DefaultBuffer)
	defer src.Close()

	v := newScreenView(s, a.reg, a.rec)
	v.draw()
	return consumeQueue[tcell.Event](ctx, a, src, v, describeTcell, quitScreen)
}

func runWS(ctx context.Context, a *app) error {
	if a.cfg.URL != "" {
		c, err := ws.Dial(a.cfg.URL, 256)
		if err != nil {
			return err
		}
		defer c.Close()
		return runPipeline(ctx, a, c, describeMessage, nil)
	}

	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := ws.NewServer(256)
	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()
	fmt.Fprintf(a.out, "listening on ws://%s\r\n", ln.Addr())

	err = runPipeline(ctx, a, srv, describeMessage, nil)
	httpSrv.Close()
	srv.Close()

	if lerr := <-errCh; lerr != nil && !errors.Is(lerr, http.ErrServerClosed) && err == nil {
		err = lerr
	}
	return err
}

func describeMessage(m ws.Message) string {
	if len(m.Data) > 32 {
		return fmt.Sprintf("%.8s:%q…", m.Conn, m.Data[:32])
	}
	return fmt.Sprintf("%.8s:%q", m.Conn, m.Data)
}

func quitScreen(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	return ok && (key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC)
}

func quitRaw(ev terminal.Event) bool {
	return ev.Key == terminal.KeyEscape ||
		(ev.Key == terminal.KeyRune && ev.Rune == 'c' && ev.Mod&terminal.ModCtrl != 0)
}

func quitKeys(ev keys.Event) bool {
	return ev.Key == keyboard.KeyEsc || ev.Key == keyboard.KeyCtrlC
}

func quitTTY(r rune) bool {
	return r == 0x1b || r == 0x03
}

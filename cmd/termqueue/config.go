package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/lixenwraith/termqueue/latency"
	"github.com/lixenwraith/termqueue/queue"
)

// Input sources selectable with -source
const (
	sourceScreen = "screen" // tcell screen, batches rendered in place
	sourceRaw    = "raw"    // raw unix terminal reader
	sourceKeys   = "keys"   // eiannone/keyboard
	sourceTTY    = "tty"    // mattn/go-tty
	sourceSerial = "serial" // tarm/serial line
	sourceWS     = "ws"     // websocket server on -addr, or client of -url
)

const envPrefix = "TERMQUEUE_"

type appConfig struct {
	Queue queue.Config

	Source string
	Device string // Serial port name
	Baud   int
	Addr   string // WebSocket listen address
	URL    string // WebSocket endpoint to dial instead of listening

	Trace         string // JSON-lines trace file, disabled when empty
	LatencyWindow int
	Bell          bool
	Debug         bool
}

func defaultAppConfig() appConfig {
	return appConfig{
		Queue:         queue.DefaultConfig(),
		Source:        sourceScreen,
		Baud:          115200,
		Addr:          "127.0.0.1:8765",
		LatencyWindow: latency.DefaultWindow,
	}
}

// loadEnvFile reads an optional .env; variables already in the environment win
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig layers defaults, TERMQUEUE_* environment values, then command-line flags
func loadConfig(args []string, getenv func(string) string, out io.Writer) (appConfig, error) {
	cfg := defaultAppConfig()
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("termqueue", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.DurationVar(&cfg.Queue.IdlePollTimeout, "idle-poll", cfg.Queue.IdlePollTimeout, "Poll timeout while no batch is pending")
	fs.DurationVar(&cfg.Queue.PendingPollTimeout, "pending-poll", cfg.Queue.PendingPollTimeout, "Poll timeout while a batch is pending")
	fs.DurationVar(&cfg.Queue.BatchWindow, "batch-window", cfg.Queue.BatchWindow, "Minimum spacing between input batches")
	fs.DurationVar(&cfg.Queue.TickPeriod, "tick", cfg.Queue.TickPeriod, "Tick period")
	fault := fs.String("fault", cfg.Queue.FaultPolicy.String(), "Producer fault policy: crash, deliver")

	fs.StringVar(&cfg.Source, "source", cfg.Source, "Input source: screen, raw, keys, tty, serial, ws")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "Serial port for -source serial")
	fs.IntVar(&cfg.Baud, "baud", cfg.Baud, "Serial baud rate")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "WebSocket listen address for -source ws")
	fs.StringVar(&cfg.URL, "url", cfg.URL, "WebSocket URL to dial for -source ws (overrides -addr)")
	fs.StringVar(&cfg.Trace, "trace", cfg.Trace, "Write received batches as JSON lines to this file")
	fs.IntVar(&cfg.LatencyWindow, "latency-window", cfg.LatencyWindow, "Flushes kept for the latency summary")
	fs.BoolVar(&cfg.Bell, "bell", cfg.Bell, "Play a short tone per input batch")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Write logs to logs/termqueue.log")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	policy, err := queue.ParseFaultPolicy(*fault)
	if err != nil {
		return cfg, err
	}
	cfg.Queue.FaultPolicy = policy

	return cfg, cfg.validate()
}

func applyEnv(cfg *appConfig, getenv func(string) string) error {
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"IDLE_POLL", &cfg.Queue.IdlePollTimeout},
		{"PENDING_POLL", &cfg.Queue.PendingPollTimeout},
		{"BATCH_WINDOW", &cfg.Queue.BatchWindow},
		{"TICK_PERIOD", &cfg.Queue.TickPeriod},
	}
	for _, d := range durations {
		v := getenv(envPrefix + d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, d.key, err)
		}
		*d.dst = parsed
	}

	if v := getenv(envPrefix + "FAULT_POLICY"); v != "" {
		policy, err := queue.ParseFaultPolicy(v)
		if err != nil {
			return fmt.Errorf("%sFAULT_POLICY: %w", envPrefix, err)
		}
		cfg.Queue.FaultPolicy = policy
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"SOURCE", &cfg.Source},
		{"DEVICE", &cfg.Device},
		{"ADDR", &cfg.Addr},
		{"URL", &cfg.URL},
		{"TRACE", &cfg.Trace},
	}
	for _, s := range strs {
		if v := getenv(envPrefix + s.key); v != "" {
			*s.dst = v
		}
	}

	if v := getenv(envPrefix + "BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBAUD: %w", envPrefix, err)
		}
		cfg.Baud = baud
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"BELL", &cfg.Bell},
		{"DEBUG", &cfg.Debug},
	}
	for _, b := range bools {
		v := getenv(envPrefix + b.key)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, b.key, err)
		}
		*b.dst = on
	}
	return nil
}

func (c appConfig) validate() error {
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	switch c.Source {
	case sourceScreen, sourceRaw, sourceKeys, sourceTTY, sourceWS:
	case sourceSerial:
		if c.Device == "" {
			return fmt.Errorf("source serial requires -device")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.LatencyWindow <= 0 {
		return fmt.Errorf("latency window must be positive, got %d", c.LatencyWindow)
	}
	return nil
}

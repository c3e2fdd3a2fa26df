package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termqueue/latency"
	"github.com/lixenwraith/termqueue/queue"
	"github.com/lixenwraith/termqueue/status"
)

const historyLines = 200

// formatBatch renders one batch as a single line
func formatBatch[E any](at time.Time, b queue.Batch[E], format func(E) string) string {
	if b.IsTick() {
		return fmt.Sprintf("%s tick", at.Format("15:04:05.000"))
	}
	events := b.Events()
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = format(e)
	}
	return fmt.Sprintf("%s batch[%d] %s", at.Format("15:04:05.000"), len(events), strings.Join(parts, " "))
}

// lineView prints one line per batch; \r\n keeps output aligned while the terminal is raw
type lineView[E any] struct {
	mu     sync.Mutex
	w      io.Writer
	format func(E) string
}

func newLineView[E any](w io.Writer, format func(E) string) *lineView[E] {
	return &lineView[E]{w: w, format: format}
}

func (v *lineView[E]) show(at time.Time, b queue.Batch[E]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "%s\r\n", formatBatch(at, b, v.format))
}

func (v *lineView[E]) fault(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "fault: %v\r\n", err)
}

// screenView renders batch history, queue metrics and flush latency on a tcell screen
type screenView struct {
	screen tcell.Screen
	reg    *status.Registry
	rec    *latency.Recorder

	history []string
	faulted error
}

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleTick   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleBatch  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleFault  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

func newScreenView(s tcell.Screen, reg *status.Registry, rec *latency.Recorder) *screenView {
	return &screenView{screen: s, reg: reg, rec: rec}
}

func (v *screenView) show(at time.Time, b queue.Batch[tcell.Event]) {
	for _, ev := range b.Events() {
		if _, ok := ev.(*tcell.EventResize); ok {
			v.screen.Sync()
		}
	}
	v.history = append(v.history, formatBatch(at, b, describeTcell))
	if len(v.history) > historyLines {
		v.history = v.history[len(v.history)-historyLines:]
	}
	v.draw()
}

func (v *screenView) fault(err error) {
	v.faulted = err
	v.draw()
}

func (v *screenView) draw() {
	s := v.screen
	s.Clear()
	width, height := s.Size()

	drawText(s, 0, 0, width, styleTitle, "termqueue  (esc / ctrl+c to quit)")

	row := 1
	var metrics []string
	for _, m := range v.reg.Snapshot() {
		metrics = append(metrics, m.Name+"="+m.Value)
	}
	drawText(s, 0, row, width, styleStatus, strings.Join(metrics, "  "))
	row++
	drawText(s, 0, row, width, styleStatus, v.rec.Summary().String())
	row++
	if v.faulted != nil {
		drawText(s, 0, row, width, styleFault, "fault: "+v.faulted.Error())
		row++
	}
	row++

	// Newest batches at the bottom
	visible := height - row
	start := 0
	if len(v.history) > visible {
		start = len(v.history) - visible
	}
	for _, line := range v.history[start:] {
		style := styleBatch
		if strings.HasSuffix(line, " tick") {
			style = styleTick
		}
		drawText(s, 0, row, width, style, line)
		row++
	}
	s.Show()
}

func drawText(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= maxWidth {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// describeTcell names a tcell event compactly
func describeTcell(ev tcell.Event) string {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return e.Name()
	case *tcell.EventMouse:
		x, y := e.Position()
		return fmt.Sprintf("mouse(%d,%d)", x, y)
	case *tcell.EventResize:
		w, h := e.Size()
		return fmt.Sprintf("resize(%dx%d)", w, h)
	case *tcell.EventPaste:
		if e.Start() {
			return "paste-start"
		}
		return "paste-end"
	default:
		return fmt.Sprintf("%T", ev)
	}
}

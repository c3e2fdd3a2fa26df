package terminal

import "testing"

func collect(data []byte, final bool) ([]Event, int) {
	var events []Event
	n := parseInput(data, final, func(ev Event) {
		events = append(events, ev)
	})
	return events, n
}

func TestParsePrintableAndControl(t *testing.T) {
	events, n := collect([]byte("ab\x03\r\x7f\t"), false)
	if n != 6 {
		t.Fatalf("Expected 6 bytes consumed, got %d", n)
	}

	want := []Event{
		{Key: KeyRune, Rune: 'a'},
		{Key: KeyRune, Rune: 'b'},
		{Key: KeyRune, Rune: 'c', Mod: ModCtrl},
		{Key: KeyEnter},
		{Key: KeyBackspace},
		{Key: KeyTab},
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, want[i], events[i])
		}
	}
}

func TestParseEscapeSequences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{"up", "\x1b[A", Event{Key: KeyUp}},
		{"ctrl right", "\x1b[1;5C", Event{Key: KeyRight, Mod: ModCtrl}},
		{"page down", "\x1b[6~", Event{Key: KeyPageDown}},
		{"f5", "\x1b[15~", Event{Key: KeyF5}},
		{"ss3 f1", "\x1bOP", Event{Key: KeyF1}},
		{"backtab", "\x1b[Z", Event{Key: KeyBacktab, Mod: ModShift}},
		{"alt x", "\x1bx", Event{Key: KeyRune, Rune: 'x', Mod: ModAlt}},
		{"alt escape", "\x1b\x1b", Event{Key: KeyEscape, Mod: ModAlt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, n := collect([]byte(tt.in), false)
			if n != len(tt.in) {
				t.Errorf("Expected %d bytes consumed, got %d", len(tt.in), n)
			}
			if len(events) != 1 || events[0] != tt.want {
				t.Errorf("Expected [%+v], got %+v", tt.want, events)
			}
		})
	}
}

func TestParseIncompleteSequenceWaits(t *testing.T) {
	events, n := collect([]byte("a\x1b["), false)
	if n != 1 {
		t.Errorf("Expected to stop before partial CSI at 1, got %d", n)
	}
	if len(events) != 1 {
		t.Errorf("Expected only the rune before the partial sequence, got %v", events)
	}

	events, n = collect([]byte("\x1b"), false)
	if n != 0 || len(events) != 0 {
		t.Errorf("Expected lone ESC to wait, got n=%d events=%v", n, events)
	}
}

func TestParseFinalResolvesLoneEscape(t *testing.T) {
	events, n := collect([]byte("\x1b"), true)
	if n != 1 {
		t.Fatalf("Expected 1 byte consumed, got %d", n)
	}
	if len(events) != 1 || events[0].Key != KeyEscape || events[0].Mod != ModNone {
		t.Errorf("Expected standalone escape, got %v", events)
	}
}

func TestParseUnknownCSISwallowed(t *testing.T) {
	// SGR mouse report is well-formed but not a key
	events, n := collect([]byte("\x1b[<0;10;5Mq"), false)
	if n != 11 {
		t.Errorf("Expected all 11 bytes consumed, got %d", n)
	}
	if len(events) != 1 || events[0].Rune != 'q' {
		t.Errorf("Expected only trailing 'q', got %v", events)
	}
}

func TestParseUTF8(t *testing.T) {
	data := []byte("é→")
	events, n := collect(data[:1], false)
	if n != 0 || len(events) != 0 {
		t.Errorf("Expected truncated rune to wait, got n=%d events=%v", n, events)
	}

	events, n = collect(data, false)
	if n != len(data) {
		t.Errorf("Expected %d bytes consumed, got %d", len(data), n)
	}
	if len(events) != 2 || events[0].Rune != 'é' || events[1].Rune != '→' {
		t.Errorf("Expected é and →, got %v", events)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Key: KeyRune, Rune: 'q'}, "q"},
		{Event{Key: KeyRune, Rune: 'c', Mod: ModCtrl}, "ctrl+c"},
		{Event{Key: KeyUp, Mod: ModShift}, "shift+up"},
		{Event{Key: KeyBacktab, Mod: ModShift}, "backtab"},
		{Event{Key: KeyF12}, "f12"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

package terminal

import "unicode/utf8"

// maxCSILen caps the scan for a CSI terminator before the bytes are discarded as garbage
const maxCSILen = 32

// parseInput decodes raw bytes into events and returns bytes consumed
// Stops at an incomplete sequence unless final is set, in which case a dangling ESC
// becomes KeyEscape and a truncated UTF-8 sequence is dropped
func parseInput(data []byte, final bool, emit func(Event)) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		// Fast path: printable ASCII
		if b >= 0x20 && b < 0x7f {
			emit(Event{Key: KeyRune, Rune: rune(b)})
			i++
			continue
		}

		if b == 0x1b {
			consumed, ev := parseEscape(data[i:])
			if consumed == 0 {
				if !final {
					return i
				}
				// Nothing followed ESC in time: standalone escape
				consumed, ev = 1, Event{Key: KeyEscape}
			}
			if ev.Key != KeyNone {
				emit(ev)
			}
			i += consumed
			continue
		}

		if b < 0x20 {
			emit(parseControl(b))
			i++
			continue
		}

		if b == 0x7f {
			emit(Event{Key: KeyBackspace})
			i++
			continue
		}

		// UTF-8 multibyte
		if !utf8.FullRune(data[i:]) {
			if !final {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r != utf8.RuneError {
			emit(Event{Key: KeyRune, Rune: r})
		}
		i += size
	}
	return i
}

// parseEscape parses a sequence starting at ESC, returns 0 on incomplete
func parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}

	switch c := data[1]; {
	case c == 0x1b:
		return 2, Event{Key: KeyEscape, Mod: ModAlt}
	case c == '[':
		return parseCSI(data)
	case c == 'O':
		return parseSS3(data)
	case c < 0x20:
		ev := parseControl(c)
		ev.Mod |= ModAlt
		return 2, ev
	case c < 0x7f:
		return 2, Event{Key: KeyRune, Rune: rune(c), Mod: ModAlt}
	}

	// ESC followed by a non-ASCII byte: the ESC stands alone
	return 1, Event{Key: KeyEscape}
}

// parseCSI parses ESC [ params final
// Unknown but well-formed sequences are consumed with KeyNone so they are swallowed
func parseCSI(data []byte) (int, Event) {
	for end := 2; end < len(data); end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			if s, ok := csiMap[string(data[2:end+1])]; ok {
				return end + 1, Event{Key: s.key, Mod: s.mod}
			}
			return end + 1, Event{Key: KeyNone}
		}
		if b < 0x20 || b > 0x7e || end >= maxCSILen {
			// Malformed: drop the introducer
			return 2, Event{Key: KeyNone}
		}
	}
	return 0, Event{}
}

// parseSS3 parses ESC O X
func parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if s, ok := ss3Map[string(data[2:3])]; ok {
		return 3, Event{Key: s.key, Mod: s.mod}
	}
	return 3, Event{Key: KeyNone}
}

// parseControl maps C0 control bytes to keys
func parseControl(b byte) Event {
	switch b {
	case 0x00:
		return Event{Key: KeyRune, Rune: ' ', Mod: ModCtrl}
	case 0x08:
		return Event{Key: KeyBackspace}
	case 0x09:
		return Event{Key: KeyTab}
	case 0x0a, 0x0d:
		return Event{Key: KeyEnter}
	case 0x1b:
		return Event{Key: KeyEscape}
	case 0x1c:
		return Event{Key: KeyRune, Rune: '\\', Mod: ModCtrl}
	case 0x1d:
		return Event{Key: KeyRune, Rune: ']', Mod: ModCtrl}
	case 0x1e:
		return Event{Key: KeyRune, Rune: '^', Mod: ModCtrl}
	case 0x1f:
		return Event{Key: KeyRune, Rune: '_', Mod: ModCtrl}
	}
	if b >= 0x01 && b <= 0x1a {
		return Event{Key: KeyRune, Rune: rune('a' + b - 1), Mod: ModCtrl}
	}
	return Event{Key: KeyNone}
}

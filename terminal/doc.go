// Package terminal reads raw keyboard input from a Unix terminal without terminfo.
//
// Features:
//   - Raw mode on stdin via golang.org/x/term, restored on Close
//   - Bounded poll on the input fd (unix.Poll) so a caller can wait with a timeout
//   - Escape sequence parsing: control keys, CSI/SS3 navigation and function keys, UTF-8
//   - Lone ESC resolved as KeyEscape once a poll times out with nothing following it
//
// Source satisfies the queue.Source contract: after Poll returns true, Read pops an
// already decoded event and never touches the fd.
package terminal

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package terminal

// resetTerminalMode is a no-op where termios ioctls are unavailable
func resetTerminalMode() {}

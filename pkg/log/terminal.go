package log

import "io"

// fdWriter is implemented by *os.File.
type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isTerminalFd(f.Fd())
}

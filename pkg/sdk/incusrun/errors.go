package incusrun

import (
	"fmt"
	"strings"
)

// ProcessError is a managed CLI invocation that exited non-zero. The
// message prefers stderr and falls back to stdout, since the CLI reports
// some failures on either stream.
type ProcessError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Stdout   string
}

func (e *ProcessError) Error() string {
	msg := e.Stderr
	if msg == "" {
		msg = e.Stdout
	}
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

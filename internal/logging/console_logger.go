package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vvka-141/pgrows/internal/tui"
)

// ConsoleLogger writes log messages to a writer (stderr by default).
// Level prefixes are colored when the writer is an interactive terminal.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	styled  bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerWithWriter(os.Stderr, verbose)
}

// NewConsoleLoggerWithWriter creates a ConsoleLogger writing to out.
func NewConsoleLoggerWithWriter(out io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		out:     out,
		verbose: verbose,
		styled:  tui.IsStyled(out),
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(tui.Render(tui.VerboseStyle, "[VERBOSE]", l.styled)+" ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Warn logs recoverable problems.
func (l *ConsoleLogger) Warn(format string, args ...interface{}) {
	l.write(tui.Render(tui.WarnStyle, "[WARN]", l.styled)+" ", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(tui.Render(tui.ErrorStyle, "[ERROR]", l.styled)+" ", format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(l.out, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(l.out, prefix+format+"\n")
	}
}

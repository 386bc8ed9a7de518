// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/user/longexposure/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	clearLine   = "\r\033[K"
)

// progressMessages are redrawn in place on a terminal instead of scrolling.
var progressMessages = map[string]bool{
	"Frame %d/%d": true,
}

// terminal is shared by a logger and every component logger derived from it.
type terminal struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	// midLine is set while a progress line without newline is on out.
	midLine bool
}

// ConsoleLogger logs messages to the console with color support.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool
	term      *terminal
}

// NewConsole creates a new console logger with the specified level.
// Color output and in-place progress are enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return NewConsoleWriters(os.Stdout, os.Stderr, level, tty)
}

// NewConsoleWriters creates a console logger writing info and debug lines to
// out and warnings and errors to errOut. tty enables color and in-place
// frame progress.
func NewConsoleWriters(out, errOut io.Writer, level ports.LogLevel, tty bool) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		color: tty,
		term:  &terminal{out: out, errOut: errOut},
	}
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.level > ports.LevelDebug {
		return
	}
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	if l.level > ports.LevelInfo {
		return
	}
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	if l.level > ports.LevelWarn {
		return
	}
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	if l.level > ports.LevelError {
		return
	}
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a new logger with the specified component name.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	return &ConsoleLogger{
		level:     l.level,
		component: component,
		color:     l.color,
		term:      l.term,
	}
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	translated := l10n.F(msg, args...)

	var output string
	if l.component != "" {
		if l.color {
			output = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, translated)
		} else {
			output = fmt.Sprintf("[%s] %s", l.component, translated)
		}
	} else {
		output = translated
	}

	if l.color {
		switch level {
		case ports.LevelDebug:
			output = colorGray + output + colorReset
		case ports.LevelWarn:
			output = colorYellow + output + colorReset
		case ports.LevelError:
			output = colorRed + output + colorReset
		}
	}

	t := l.term
	t.mu.Lock()
	defer t.mu.Unlock()

	if l.color && level == ports.LevelInfo && progressMessages[msg] {
		fmt.Fprint(t.out, clearLine+output)
		t.midLine = true
		return
	}

	// Any other message ends a pending progress line first.
	if t.midLine {
		fmt.Fprintln(t.out)
		t.midLine = false
	}
	if level >= ports.LevelWarn {
		fmt.Fprintln(t.errOut, output)
	} else {
		fmt.Fprintln(t.out, output)
	}
}

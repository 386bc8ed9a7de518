package logger

import (
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/sirupsen/logrus"

	"github.com/user/longexposure/pkg/ports"
)

// StructuredLogger writes one JSON object per message through logrus.
// Messages are translated the same way as ConsoleLogger.
type StructuredLogger struct {
	entry *logrus.Entry
	level ports.LogLevel
}

// NewStructured creates a JSON logger writing to stderr.
func NewStructured(level ports.LogLevel) *StructuredLogger {
	return NewStructuredWriter(os.Stderr, level)
}

// NewStructuredWriter creates a JSON logger writing to w.
func NewStructuredWriter(w io.Writer, level ports.LogLevel) *StructuredLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return &StructuredLogger{
		entry: logrus.NewEntry(l),
		level: level,
	}
}

func (l *StructuredLogger) Debug(msg string, args ...interface{}) {
	if l.level > ports.LevelDebug {
		return
	}
	l.entry.Debug(l10n.F(msg, args...))
}

func (l *StructuredLogger) Info(msg string, args ...interface{}) {
	if l.level > ports.LevelInfo {
		return
	}
	l.entry.Info(l10n.F(msg, args...))
}

func (l *StructuredLogger) Warn(msg string, args ...interface{}) {
	if l.level > ports.LevelWarn {
		return
	}
	l.entry.Warn(l10n.F(msg, args...))
}

func (l *StructuredLogger) Error(msg string, args ...interface{}) {
	if l.level > ports.LevelError {
		return
	}
	l.entry.Error(l10n.F(msg, args...))
}

// WithComponent returns a logger that adds a "component" field.
func (l *StructuredLogger) WithComponent(component string) ports.Logger {
	return &StructuredLogger{
		entry: l.entry.WithField("component", component),
		level: l.level,
	}
}

var _ ports.Logger = (*StructuredLogger)(nil)

package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)

	// With returns a logger that attaches the given field to every line.
	With(key string, value any) Logger
}

type defaultLogger struct {
	entry *logrus.Entry
}

func NewLogger(level int) *defaultLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch level {
	case DEBUG:
		l.SetLevel(logrus.DebugLevel)
	case INFO:
		l.SetLevel(logrus.InfoLevel)
	case WARNING:
		l.SetLevel(logrus.WarnLevel)
	case ERROR:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.PanicLevel)
	}

	return &defaultLogger{entry: logrus.NewEntry(l)}
}

// ParseLevel converts a level name in configuration to a logger level. Unknown
// names fall back to INFO.
func ParseLevel(s string) int {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence", "silent", "off":
		return SILENCE
	}

	return INFO
}

func (l *defaultLogger) With(key string, value any) Logger {
	return &defaultLogger{entry: l.entry.WithField(key, value)}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.entry.Debugf(msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.entry.Infof(msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.entry.Warnf(msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.entry.Errorf(msg, a...)
}

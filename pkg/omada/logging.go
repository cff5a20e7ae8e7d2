package omada

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface the client writes to. *logrus.Logger and *logrus.Entry satisfy it.
type Logger interface {
	Trace(args ...interface{})
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type LoggingLevel int

const (
	DisabledLevel LoggingLevel = iota
	TraceLevel
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var logrusLevels = map[LoggingLevel]logrus.Level{
	TraceLevel: logrus.TraceLevel,
	DebugLevel: logrus.DebugLevel,
	InfoLevel:  logrus.InfoLevel,
	WarnLevel:  logrus.WarnLevel,
	ErrorLevel: logrus.ErrorLevel,
}

// NewDefaultLogger returns a logrus Logger writing to out (stderr when nil).
// DisabledLevel discards everything.
func NewDefaultLogger(level LoggingLevel, out io.Writer) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})

	if level == DisabledLevel {
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
		return l
	}
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	lvl, ok := logrusLevels[level]
	if !ok {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/filippocastelli/go-omada/pkg/omada"
)

// Options controls where and how much the process logs.
type Options struct {
	Verbose bool
	// LogFile, when set, receives a copy of every line and is rotated by size.
	LogFile string
	// Out defaults to stderr.
	Out io.Writer
}

// Logging bundles the process logger with the client logger writing to the same sinks.
type Logging struct {
	Logger logr.Logger
	Client omada.Logger
	file   *lumberjack.Logger
}

// Setup builds both loggers. Close must be called to flush the log file.
func Setup(opts Options) *Logging {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	l := &Logging{}
	if opts.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(out, l.file)
	}

	level := slog.LevelInfo
	clientLevel := omada.InfoLevel
	if opts.Verbose {
		level = slog.LevelDebug
		clientLevel = omada.DebugLevel
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	l.Logger = logr.FromSlogHandler(handler)
	l.Client = omada.NewDefaultLogger(clientLevel, out)
	return l
}

// Close closes the log file, if any.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Package logging builds the process logger: logrus with the nested
// formatter, written to stderr and optionally to a rotated log file.
//
// Stdout is reserved for the MCP protocol, so nothing here ever writes to it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by OptionsFromEnv.
const (
	EnvLevel   = "OMR_LOG_LEVEL"
	EnvFile    = "OMR_LOG_FILE"
	EnvNoColor = "OMR_LOG_NO_COLOR"
)

// Options configures New.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string

	// File, when set, receives a copy of every entry. The file is rotated
	// at 50 MB and old files are compressed.
	File string

	NoColors bool

	// Output replaces stderr; used by tests.
	Output io.Writer
}

// OptionsFromEnv reads OMR_LOG_LEVEL, OMR_LOG_FILE and OMR_LOG_NO_COLOR.
func OptionsFromEnv() Options {
	noColor := strings.TrimSpace(os.Getenv(EnvNoColor))
	return Options{
		Level:    strings.TrimSpace(os.Getenv(EnvLevel)),
		File:     strings.TrimSpace(os.Getenv(EnvFile)),
		NoColors: noColor != "" && noColor != "0" && !strings.EqualFold(noColor, "false"),
	}
}

// Logger is a logrus logger that may own a rotating file sink.
type Logger struct {
	*logrus.Logger
	sink *lumberjack.Logger
}

// New builds a logger from opts. An unknown level is an error.
func New(opts Options) (*Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetReportCaller(true)
	l.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger := &Logger{Logger: l}
	if opts.File != "" {
		logger.sink = &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    50,
			MaxAge:     14,
			MaxBackups: 3,
		}
		out = io.MultiWriter(out, logger.sink)
	}
	l.SetOutput(out)
	return logger, nil
}

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Package logging builds the zerolog logger used by both binaries.
// Output always goes to stderr: stdout is left alone and the exchange files
// are the only protocol channel.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options selects level, format and an optional extra log file.
type Options struct {
	Level  string // debug | info | warn | error
	Format string // console | json
	File   string // appended to in addition to stderr
}

// New creates a configured zerolog.Logger writing to stderr. The returned
// closer releases the log file, if any; it is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	return newLogger(os.Stderr, opts)
}

func newLogger(stderr *os.File, opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var out io.Writer = stderr
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !isatty.IsTerminal(stderr.Fd()),
		}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file %s: %w", opts.File, err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
	return logger, closer, nil
}

// ParseLevel maps a config level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch s {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

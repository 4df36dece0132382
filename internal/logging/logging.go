// Package logging builds the process logger from the log section of the
// configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Cyclone1070/ssrreload/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrNoWriter is returned when the writer list is empty.
var ErrNoWriter = errors.New("no log writer configured")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to every configured writer. The returned
// closer releases the rotating log file, if one was opened.
func New(cfg config.LogConfig, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
	}
	if len(cfg.Writer) == 0 {
		return zerolog.Nop(), nil, ErrNoWriter
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	for _, name := range cfg.Writer {
		switch name {
		case "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen})
		case "file":
			rotating := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
			}
			writers = append(writers, rotating)
			closer = rotating
		default:
			return zerolog.Nop(), nil, fmt.Errorf("unknown log writer %q", name)
		}
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Build struct {
	writer      io.Writer
	environment string
	level       zerolog.Level
}

func New() *Build {
	return &Build{writer: os.Stdout, level: zerolog.InfoLevel}
}

// FromBuffer sends the output to w instead of stdout.
func (b *Build) FromBuffer(w io.Writer) *Build {
	b.writer = w
	return b
}

// ForEnvironment selects human readable console output outside production.
func (b *Build) ForEnvironment(environment string) *Build {
	b.environment = environment
	return b
}

func (b *Build) WithLevel(level string) *Build {
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		b.level = parsed
	}
	return b
}

func (b *Build) Make() zerolog.Logger {
	w := b.writer
	if b.environment != "" && b.environment != "production" {
		w = zerolog.ConsoleWriter{Out: b.writer, TimeFormat: time.RFC3339, NoColor: b.writer != os.Stdout}
	}
	return zerolog.New(w).Level(b.level).With().Timestamp().Logger()
}

// Nop is used by tests and by components constructed without a logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

package hmscli

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func Logger(service Service) zerolog.Logger {
	var w io.Writer = os.Stdout
	if CommonOpts.Console {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewLogger(w, service)
}

// NewLogger builds the service logger on top of an arbitrary writer.
func NewLogger(w io.Writer, service Service) zerolog.Logger {
	level := zerolog.InfoLevel
	if CommonOpts.LogLevel != "" {
		if l, err := zerolog.ParseLevel(CommonOpts.LogLevel); err == nil {
			level = l
		}
	}
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", service.Name).
		Str("version", service.Version).
		Logger()
}

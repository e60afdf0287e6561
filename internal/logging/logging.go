// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// New returns a logger writing to w with the handler and minimum level
// selected by cfg. Text is the default format.
func New(cfg types.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch cfg.Format {
	case "", types.LogFormatText:
		h = slog.NewTextHandler(w, opts)
	case types.LogFormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, types.ErrLogFormatUnknown
	}
	return slog.New(h), nil
}

// Install builds a logger with New and makes it the slog default, so every
// component logger derived from slog.Default picks it up.
func Install(cfg types.LogConfig, w io.Writer) error {
	l, err := New(cfg, w)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

package app

import (
	"log/slog"
	"os"

	"agromarket-dispatch/internal/logx"
)

// NewLogger returns the JSON logger used by the HTTP service.
func NewLogger() logx.Logger {
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logx.NewSlogAdapter(base)
}

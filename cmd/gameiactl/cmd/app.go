package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/gameia/engine/internal/app"
	"github.com/gameia/engine/internal/config"
	"github.com/gameia/engine/internal/logger"
)

// withApp builds the full application for one command and closes it afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Load()
	logger.InitWriter(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	return fn(ctx, a)
}

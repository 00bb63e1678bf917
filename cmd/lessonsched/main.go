package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wsepesi/lesson-solver/internal/cli"
	"github.com/wsepesi/lesson-solver/internal/cli/config"
	"github.com/wsepesi/lesson-solver/internal/cli/fixturecmd"
	"github.com/wsepesi/lesson-solver/internal/cli/solvecmd"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development defaults", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	cli.SetLogger(logger)

	fixturecmd.SetDefaultDBPath(cfg.FixtureDBPath)

	cli.AddCommand(solvecmd.Cmd)
	cli.AddCommand(fixturecmd.Cmd)

	cli.ExecuteContext(ctx)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ykvlv/bedtime-bot/internal/app"
	"github.com/ykvlv/bedtime-bot/internal/config"
	"github.com/ykvlv/bedtime-bot/internal/logger"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

func main() {
	os.Exit(run(context.Background(), os.Stderr))
}

// run returns the process exit code: exitUsage when the bot cannot be
// configured, exitFailure when it started and then stopped on an error.
// The logger is flushed on every path.
func run(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitUsage
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger init error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	bot, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return exitUsage
	}
	if err := bot.Run(ctx); err != nil {
		log.Error("bedtime-bot stopped", zap.Error(err))
		return exitFailure
	}
	log.Info("bye")
	return exitOK
}

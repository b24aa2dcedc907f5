package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"gamebook/internal/cli"
	"gamebook/internal/config"
	sharedLogger "gamebook/shared/logger"
)

func main() {
	_ = godotenv.Load()

	// Конфиг грузим до логгера
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := sharedLogger.New(cfg.Logger())
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	app.Color = isatty.IsTerminal(os.Stdout.Fd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.NewRootCommand(app).ExecuteContext(ctx)
	stop()

	if flushErr := app.FlushMetrics(); flushErr != nil {
		logger.Warn("Failed to write metrics textfile", zap.Error(flushErr))
	}
	if closeErr := app.Close(); closeErr != nil {
		logger.Warn("Failed to close save slot database", zap.Error(closeErr))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	_ = logger.Sync()
	os.Exit(cli.ExitCode(err))
}

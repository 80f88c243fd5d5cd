package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"

	"pnl-engine/internal/adapters/cli"
	"pnl-engine/internal/adapters/repl"
	"pnl-engine/internal/app"
	"pnl-engine/internal/config"
	"pnl-engine/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := logging.GetLogger()
	logger.SetOutput(os.Stderr)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logging.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, cleanup, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer cleanup()

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
			cleanup()
			logger.Fatal(err)
		}
		return
	}

	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}

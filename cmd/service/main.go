package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Poutchouli/SharedMailbox-editor/internal/config"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/server"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

func main() {
	// .env es opcional
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded (%v), using process environment", err)
	}

	cfgPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "ruta del config YAML (opcional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "mbxperm"})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg := logger.Named("service")
	if err := server.Start(ctx, cfg); err != nil {
		lg.Error("server failed", logger.Err(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	lg.Info("bye")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

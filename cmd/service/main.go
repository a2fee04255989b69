package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manasv777/investiq-hacknc/internal/config"
	"github.com/manasv777/investiq-hacknc/internal/http/server"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"

	// Import adapters to register them via init()
	_ "github.com/manasv777/investiq-hacknc/internal/store/memory"
	_ "github.com/manasv777/investiq-hacknc/internal/store/pg"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		flagConfig  = flag.String("config", "", "path a config.yaml (default: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile = flag.String("env-file", ".env", "archivo .env opcional")
	)
	flag.Parse()

	config.LoadDotEnv(*flagEnvFile)

	path := *flagConfig
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "investiq-service"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := server.Build(ctx, cfg)
	if err != nil {
		log.Error("wiring failed", logger.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("cleanup", logger.Err(err))
		}
	}()

	log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("env", cfg.App.Env),
		logger.String("storage", cfg.Storage.Driver), logger.String("cache", cfg.Cache.Kind))
	if err := server.Run(ctx, cfg.Server.Addr, handler, shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
	log.Info("bye")
}

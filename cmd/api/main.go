package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ctrl-pay/ctrl_pay/internal/config"
	"github.com/ctrl-pay/ctrl_pay/internal/infra"
	"github.com/ctrl-pay/ctrl_pay/internal/logging"
	"github.com/ctrl-pay/ctrl_pay/internal/routes"
	"github.com/ctrl-pay/ctrl_pay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := infra.Connect(ctx, cfg.DatabaseURL, cfg.RedisURL, cfg.AppName, logger)
	if err != nil {
		logger.Error("connect backing stores", "error", err)
		os.Exit(1)
	}
	defer clients.Close(logger)

	notifier, closeNotifier, err := routes.BuildNotifier(cfg, logger)
	if err != nil {
		logger.Error("build notifier", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Warn("close notifier", "error", err)
		}
	}()

	srv, err := server.New(cfg, clients.DB, clients.Cache, notifier, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "address", cfg.Address(), "env", cfg.AppEnv)
		return srv.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

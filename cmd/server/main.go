package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-hub/internal/app"
	"cv-hub/internal/config"
	"cv-hub/internal/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = run(context.Background(), cfg, lg, sigCh)
	_ = lg.Sync()
	if err != nil {
		log.Printf("server exited: %v", err)
		os.Exit(1)
	}
}

// run serves until the listener fails or a signal arrives. Cleanup has finished by the time it
// returns.
func run(ctx context.Context, cfg config.Config, lg *zap.Logger, sigCh <-chan os.Signal) (err error) {
	bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("bootstrap app: %w", err)
	}
	defer func() {
		if cerr := cleanup(); cerr != nil {
			lg.Error("cleanup error", zap.Error(cerr))
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		return fmt.Errorf("invalid HTTP port: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Environment))
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", zap.Error(err))
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case sig := <-sigCh:
		lg.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			lg.Error("shutdown error", zap.Error(err))
		}
		return nil
	}
}

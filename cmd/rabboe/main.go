// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rabboe runs the publish/subscribe object router.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/rabboe/health"
	"code.hybscloud.com/rabboe/internal/config"
	"code.hybscloud.com/rabboe/internal/observability"
	"code.hybscloud.com/rabboe/reactor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	code := 0
	if err := run(ctx); err != nil {
		slog.Error("fatal error", slog.Any("err", err))
		code = 1
	}
	os.Exit(code)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting rabboe router",
		slog.String("listen_addr", cfg.ListenAddr),
		slog.String("health_addr", cfg.HealthAddr),
		slog.Int("max_conns", cfg.MaxConns),
	)

	srv, err := reactor.New(
		reactor.WithListenAddr(cfg.ListenAddr),
		reactor.WithMaxConns(cfg.MaxConns),
		reactor.WithReadBufInitialCap(cfg.ReadBufInitialCap),
		reactor.WithMaxFrameBytes(cfg.MaxFrameBytes),
		reactor.WithLiveness(cfg.LivenessInterval, cfg.LivenessTimeout),
		reactor.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("constructing reactor: %w", err)
	}

	healthServer := health.NewServer(cfg.HealthAddr, srv, logger)

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("reactor: %w", err)
		}
	}()
	go func() {
		if err := healthServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	case err := <-errCh:
		slog.Error("component failed", slog.Any("err", err))
		return err
	}

	slog.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("health server shutdown error", slog.Any("err", err))
	}

	slog.Info("shutdown complete")
	return nil
}

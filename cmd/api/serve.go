package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"reviewguard/internal/batch"
	"reviewguard/internal/config"
	"reviewguard/internal/detector"
	"reviewguard/internal/logging"
	transporthttp "reviewguard/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

const (
	flagListen  = "listen"
	flagWorkers = "workers"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagListen,
				Usage: "Address the HTTP server listens on (default from REVIEW_LISTEN_ADDR or :8080)",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Usage: "Concurrent analyses per batch (default from REVIEW_BATCH_WORKERS or 8)",
			},
		},
		Action: runServe,
	}
}

// serveConfig resolves the server configuration: environment (and .env)
// first, then any flag given explicitly on the command line.
func serveConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if cmd.IsSet(flagRules) {
		cfg.RulesFile = cmd.String(flagRules)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagListen) {
		cfg.ListenAddr = cmd.String(flagListen)
	}
	if cmd.IsSet(flagWorkers) {
		cfg.BatchWorkers = int(cmd.Int(flagWorkers))
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rules, err := detector.LoadRules(cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("init rules: %w", err)
	}
	det := detector.New(rules)
	runner := batch.NewRunner(det, cfg.BatchWorkers, logger.Named("batch"))
	server := transporthttp.NewServer(det, runner, cfg, logger.Named("http"))

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("review API listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("model_version", rules.Version()),
			zap.Int("batch_workers", cfg.BatchWorkers),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

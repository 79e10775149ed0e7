package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mypgrade/internal/amqp"
	"mypgrade/internal/backend"
	"mypgrade/internal/cli"
	apphttp "mypgrade/internal/http"
	applog "mypgrade/internal/log"
	"mypgrade/internal/services"
	"mypgrade/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create storage backend", applog.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	// The publisher stays a nil interface when AMQP is not configured.
	var publisher services.SnapshotPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("Publishing grade snapshots", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP_URL not set, snapshot publishing disabled")
	}

	grades := services.NewGradeService(ctx, storage.NewSubjectRepository(result.Backend), publisher)

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
	}
	if p, ok := result.Backend.(backend.Pinger); ok {
		opts = append(opts, apphttp.WithReadyCheck("storage", p.Ping))
	}
	srv := apphttp.NewServer(":"+cfg.Port, grades, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 35 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mypgrade server", "port", cfg.Port, "backend", backendCfg.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("Server error", applog.FieldError, runErr, "port", cfg.Port)
	}

	cli.RunCleanup(logger, cfg.ShutdownTimeout, func() error {
		return errors.Join(grades.Close(), cleanupBackend(result))
	})

	if runErr != nil {
		os.Exit(1)
	}
}

func cleanupBackend(result *backend.BackendResult) error {
	if result.Cleanup == nil {
		return nil
	}
	return result.Cleanup()
}

package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"mypgrade/internal/amqp"
	"mypgrade/internal/backend"
	"mypgrade/internal/cli"
	"mypgrade/internal/config"
	applog "mypgrade/internal/log"
	"mypgrade/internal/sheets"
	"mypgrade/internal/sheets/google"
	sheetsmem "mypgrade/internal/sheets/memory"
	"mypgrade/internal/storage"
	"mypgrade/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentExporter)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	writer, err := newDashboardWriter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize dashboard writer", applog.FieldError, err, "export_backend", cfg.ExportBackend)
		os.Exit(1)
	}

	// The loader is only set for a shared on-disk store; the memory backend
	// lives inside the server process.
	var loader worker.SubjectLoader
	var cleanup func() error
	if cfg.StorageBackend == string(backend.SQLiteBackend) {
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			logger.Error("Invalid backend configuration", applog.FieldError, err)
			os.Exit(1)
		}
		result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
		if err != nil {
			logger.Error("Failed to open grade store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		loader = storage.NewSubjectRepository(result.Backend)
		cleanup = result.Cleanup
	}

	w := worker.NewExportWorker(writer, loader)
	if err := w.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("AMQP close failed", applog.FieldError, err)
			}
		}()

		logger.Info("Exporter consuming grade snapshots",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue, "export_backend", cfg.ExportBackend)
		g.Go(func() error { return w.Run(gctx, client) })
	} else {
		logger.Info("AMQP_URL not set, exporter ran startup export only and is idle")
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Exporter stopped with error", applog.FieldError, err)
	}

	cli.RunCleanup(logger, cfg.ShutdownTimeout, cleanup)
	logger.Info("Exporter stopped")
}

func newDashboardWriter(ctx context.Context, cfg *config.Config) (sheets.DashboardWriter, error) {
	if cfg.ExportBackend != "sheets" {
		return sheetsmem.New(), nil
	}
	return google.NewWithCredentials(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, google.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
}

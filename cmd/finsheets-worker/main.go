package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"finsheets/internal/amqp"
	"finsheets/internal/backend"
	"finsheets/internal/cli"
	"finsheets/internal/config"
	"finsheets/internal/core"
	"finsheets/internal/log"
	"finsheets/internal/sheets/google"
	"finsheets/internal/storage"
	"finsheets/internal/storage/libsql"
	"finsheets/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var resync []string

	cmd := &cobra.Command{
		Use:   "finsheets-worker",
		Short: "Export changed sheets to Google Sheets",
		Long: `Consumes sheet change events from RabbitMQ and rewrites the matching
tab of the configured Google spreadsheet.

With --resync, every sheet of the given tenants is exported once at start-up
before consuming events.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(resync)
		},
	}
	cmd.Flags().StringSliceVar(&resync, "resync", nil, "tenant keys to export in full at start-up")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(resync []string) error {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateExport)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting finsheets-worker")

	// The worker only reads; it must not publish events of its own.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend configuration: %w", err)
	}
	backendCfg.AMQPURL = ""

	factory := backend.NewFactory(logger,
		backend.WithOpener(backend.LibSQLBackend, func(c backend.Config) (*storage.Repository, error) {
			return libsql.Open(c.DatabaseURL, c.DatabaseAuthToken)
		}))
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		return err
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	exporter, err := google.NewExporter(context.Background(), cfg.GoogleSpreadsheetID, google.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		return err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(result.Backend, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	for _, tenant := range resync {
		g.Go(func() error {
			n, err := exportWorker.ExportTenant(gctx, core.TenantKey(tenant))
			if err != nil {
				// a partial resync is not fatal; events keep flowing
				logger.Error("Resync failed", log.FieldTenant, core.TenantKey(tenant).Fingerprint(), log.FieldError, err)
				return nil
			}
			logger.Info("Resync complete", log.FieldTenant, core.TenantKey(tenant).Fingerprint(), "sheets", n)
			return nil
		})
	}
	g.Go(func() error {
		return amqpClient.ConsumeSheetChanges(gctx, exportWorker.HandleMessage)
	})

	return finish(logger, g.Wait(), done)
}

// finish reports how consumption ended. A cancelled context means a signal
// arrived, so the shutdown sequence is awaited before returning.
func finish(logger *log.Logger, err error, done <-chan struct{}) error {
	switch {
	case err == nil:
		logger.Info("Worker stopped")
		return nil
	case errors.Is(err, context.Canceled):
		<-done
		logger.Info("Worker shutdown complete")
		return nil
	default:
		logger.Error("Message consumption failed", log.FieldError, err)
		return err
	}
}

package main

import (
	"context"
	"errors"
	"time"

	"gagyebu/internal/cli"
	"gagyebu/internal/config"
	"gagyebu/internal/log"
	"gagyebu/internal/sheets"
	gsheet "gagyebu/internal/sheets/google"
	sheetsmem "gagyebu/internal/sheets/memory"
	"gagyebu/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("gagyebu-worker")
	logger.Info("Starting gagyebu-worker")

	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.AMQPURL == "" {
			return errors.New("configuration validation failed:\n- AMQP_URL is required for the worker")
		}
		return nil
	})

	app, err := cli.Wire(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	if app.Backend.Publisher == nil {
		_ = app.Close()
		cli.Fatal(logger, "Message broker unavailable", errors.New("no AMQP connection"))
	}

	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSummarySheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = app.Close()
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		writer = client
	} else {
		logger.Info("Google Sheets disabled - summaries kept in memory only")
		writer = sheetsmem.New()
	}

	exporter := worker.NewExportWorker(app.Ledger, writer, cfg.ComparisonWindow)
	wlog := logger.WithComponent(log.ComponentWorker)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		exporter.StopSchedule()
		if err := app.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := exporter.StartSchedule(ctx, cfg.ExportSchedule); err != nil {
		cli.Fatal(logger, "Failed to start export schedule", err)
	}

	go func() {
		err := app.Backend.Publisher.ConsumeChanges(ctx, exporter.HandleChange)
		if err != nil && !errors.Is(err, context.Canceled) {
			wlog.Error("Change consumption stopped", "error", err)
		}
	}()

	wlog.Info("Worker running",
		"schedule", cfg.ExportSchedule,
		"window", cfg.ComparisonWindow,
		"queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gagyebu/internal/backend"
	"gagyebu/internal/cli"
	"gagyebu/internal/config"
	apphttp "gagyebu/internal/http"
	"gagyebu/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("gagyebu")
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	app, err := cli.Wire(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	var ready backend.Pinger
	if p, ok := app.Backend.Store.(backend.Pinger); ok {
		ready = p
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: app.Transactions,
		FixedItems:   app.FixedItems,
		Ledger:       app.Ledger,
		Verifier:     session.NewVerifier(cfg.JWTSecret),
		Ready:        ready,
		Logger:       logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting gagyebu server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

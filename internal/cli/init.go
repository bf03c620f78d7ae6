// Package cli holds the start-up steps shared by the gagyebu commands.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gagyebu/internal/backend"
	"gagyebu/internal/cache"
	"gagyebu/internal/config"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
)

// SetupLogger builds the component logger from LOG_LEVEL/LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.ConfigFromEnv(component))
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the configuration and exits on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// App is the wired service graph every command runs on.
type App struct {
	Backend      *backend.BackendResult
	Transactions *services.TransactionService
	FixedItems   *services.FixedItemService
	Ledger       *services.Ledger
	Caches       *cache.Manager
}

// Wire opens the configured backend and builds the services over it.
func Wire(ctx context.Context, logger *log.Logger, cfg *config.Config) (*App, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}

	retry := services.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    2 * time.Second,
	}

	caches := cache.NewManager()
	var snapshots *cache.LRUCache[services.Snapshot]
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		snapshots = cache.NewLRUCache[services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
		caches.Register(snapshots)
		caches.StartCleanup(cfg.CacheTTL)
	}

	ledger := services.NewLedger(res.Store, res.Store, snapshots, retry, cfg.ComparisonWindow)

	var publisher services.ChangePublisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}
	notifier := services.NewNotifier(publisher, ledger)

	return &App{
		Backend:      res,
		Transactions: services.NewTransactionService(res.Store, retry, notifier),
		FixedItems:   services.NewFixedItemService(res.Store, retry, notifier),
		Ledger:       ledger,
		Caches:       caches,
	}, nil
}

// Close stops the cache sweeper and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	if a.Backend.Cleanup != nil {
		return a.Backend.Cleanup()
	}
	return nil
}

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM. cleanup
// runs once after the signal, bounded by timeout; done closes when it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until shutdown has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Fatal logs err and exits.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.ErrorContext(context.Background(), msg, slog.Any("error", err))
	os.Exit(1)
}

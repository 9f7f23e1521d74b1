package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/internal/api"
	"github.com/marceleta/crypto-monitor/internal/backfill"
	"github.com/marceleta/crypto-monitor/internal/cache"
	"github.com/marceleta/crypto-monitor/internal/database"
	"github.com/marceleta/crypto-monitor/internal/evolution"
	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/internal/messaging"
	"github.com/marceleta/crypto-monitor/internal/services"
	"github.com/marceleta/crypto-monitor/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Core components
	mysqlDB    *database.MySQLClient
	redisCache *cache.RedisClient
	natsClient *messaging.NATSClient
	registry   *exchange.Registry

	// Services
	orchestrator *backfill.Orchestrator
	aggregator   *evolution.Aggregator
	worker       *services.BackfillWorker
	apiServer    *api.Server
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize initializes all application components
func (a *App) Initialize() error {
	if err := a.initializeDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := a.initializeCache(); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := a.initializeMessaging(); err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	a.initializeServices()
	a.initializeAPIServer()

	return nil
}

// Start starts the application
func (a *App) Start() error {
	// Start backfill worker
	if err := a.worker.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start backfill worker: %w", err)
	}

	// Start API server
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil {
			if err != http.ErrServerClosed {
				a.logger.WithError(err).Error("API server error")
			}
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *App) Stop() error {
	a.logger.Info("Stopping application...")

	// Signal shutdown
	a.cancel()

	// Stop API server first so no new backfill requests are published
	if a.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Error("Error stopping API server")
		}
		cancel()
	}

	// Drain in-flight backfill tasks
	done := make(chan struct{})
	go func() {
		a.worker.Wait()
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All workers stopped")
	case <-time.After(10 * time.Second):
		a.logger.Warn("Timeout waiting for workers to finish")
	}

	if err := a.closeConnections(); err != nil {
		a.logger.WithError(err).Error("Error closing connections")
	}

	a.logger.Info("Application stopped successfully")
	return nil
}

// GetContext returns the application context
func (a *App) GetContext() context.Context {
	return a.ctx
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.cfg
}

// GetLogger returns the application logger
func (a *App) GetLogger() *logrus.Logger {
	return a.logger
}

// Orchestrator exposes the backfill orchestrator for CLI-driven runs
func (a *App) Orchestrator() *backfill.Orchestrator {
	return a.orchestrator
}

// Database exposes the MySQL client for CLI-driven runs
func (a *App) Database() *database.MySQLClient {
	return a.mysqlDB
}

// Private initialization methods

func (a *App) initializeDatabase() error {
	mysqlClient, err := database.NewMySQLClient(&a.cfg.MySQL, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	a.mysqlDB = mysqlClient

	return nil
}

func (a *App) initializeCache() error {
	redisClient, err := cache.NewRedisClient(&a.cfg.Redis, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.redisCache = redisClient

	return nil
}

func (a *App) initializeMessaging() error {
	natsClient, err := messaging.NewNATSClient(&a.cfg.NATS, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.natsClient = natsClient

	return nil
}

func (a *App) initializeServices() {
	a.registry = exchange.DefaultRegistry()

	a.orchestrator = backfill.NewOrchestrator(
		a.mysqlDB,
		a.mysqlDB,
		a.mysqlDB,
		a.registry,
		&a.cfg.Exchange,
		a.logger,
	)

	// Dashboard reads go through the Redis-backed quote source so the
	// latest-close lookups skip MySQL on repeat requests.
	quoteSource := cache.NewCachedQuoteSource(a.mysqlDB, a.redisCache, a.logger)
	a.aggregator = evolution.NewAggregator(a.mysqlDB, quoteSource, a.mysqlDB, a.logger)

	a.worker = services.NewBackfillWorker(
		a.natsClient,
		a.orchestrator,
		a.redisCache,
		&a.cfg.Backfill,
		a.logger,
	)
}

func (a *App) initializeAPIServer() {
	a.apiServer = api.NewServer(
		a.cfg,
		a.logger,
		a.mysqlDB,
		a.natsClient,
		a.aggregator,
		a.registry,
	)
}

func (a *App) closeConnections() error {
	var errs []error

	if a.mysqlDB != nil {
		if err := a.mysqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MySQL: %w", err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close NATS: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}

	return nil
}

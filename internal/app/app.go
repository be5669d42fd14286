// Package app wires configuration, logging, storage and the crawl/publish
// components together for the command layer.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/resakss/harvester/internal/config"
	"github.com/resakss/harvester/internal/crawl"
	"github.com/resakss/harvester/internal/database"
	"github.com/resakss/harvester/internal/drupal"
	"github.com/resakss/harvester/internal/logger"
	"github.com/resakss/harvester/internal/publish"
	"github.com/resakss/harvester/internal/sanitize"
	"github.com/resakss/harvester/internal/source"
)

// App holds the shared dependencies every command needs.
type App struct {
	config  *config.Config
	logger  logger.Logger
	db      *sqlx.DB
	store   *database.RecordStore
	version string
}

// Options configures App construction.
type Options struct {
	ConfigPath string
	Version    string
}

// New loads configuration, opens the database and runs pending migrations.
func New(opts Options) (*App, error) {
	// Missing .env is fine; config falls back to the YAML values.
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "harvester"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.RunMigrations(cfg.Database.URL()); err != nil {
		db.Close()
		_ = appLogger.Sync()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &App{
		config:  cfg,
		logger:  appLogger,
		db:      db,
		store:   database.NewRecordStore(db),
		version: opts.Version,
	}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger {
	return a.logger
}

// Store returns the record store.
func (a *App) Store() *database.RecordStore {
	return a.store
}

// Engine builds the crawl engine over the shared store.
func (a *App) Engine() *crawl.Engine {
	return crawl.NewEngine(a.store, sanitize.New(), a.logger)
}

// Fetcher builds an HTTP/feed fetcher from the crawl config.
func (a *App) Fetcher() *source.Fetcher {
	return source.NewFetcher(a.config.Crawl.RequestTimeout, a.config.Crawl.UserAgent)
}

// Adapters resolves the adapters to run: the explicit names when given,
// otherwise the config list, otherwise every registered adapter.
func (a *App) Adapters(names []string) ([]source.Adapter, error) {
	fetcher := a.Fetcher()
	if len(names) == 0 {
		names = a.config.Crawl.Sources
	}
	if len(names) == 0 {
		return source.All(fetcher), nil
	}
	return source.Select(fetcher, names)
}

// Publisher logs in to the CMS and builds a publisher over the shared store.
// The error is fatal when it wraps drupal.ErrAuth; nothing may be published
// without a session.
func (a *App) Publisher(ctx context.Context) (*publish.Publisher, error) {
	client, err := drupal.NewClient(ctx, drupal.Config{
		BaseURL:        a.config.CMS.BaseURL,
		Username:       a.config.CMS.Username,
		Password:       a.config.CMS.Password,
		LoginPath:      a.config.CMS.LoginPath,
		NodePath:       a.config.CMS.NodePath,
		VisitHome:      a.config.CMS.VisitHome,
		MaxRetries:     a.config.CMS.MaxRetries,
		RetryDelay:     a.config.CMS.RetryDelay,
		RequestTimeout: a.config.CMS.RequestTimeout,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create cms client: %w", err)
	}
	return publish.NewPublisher(a.store, client, a.logger), nil
}

// Close releases the database connection and flushes the logger.
func (a *App) Close() error {
	err := a.db.Close()
	_ = a.logger.Sync()
	return err
}

package backend

import (
	"context"
	"fmt"
	"log/slog"

	"khata/internal/amqp"
	"khata/internal/config"
	"khata/internal/store/google"
	"khata/internal/store/memory"
	"khata/internal/store/sqlite"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	var result *Result
	var err error
	switch cfg.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(cfg)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx)
	case MemoryBackend:
		result, err = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	// The broker is optional for every backend.
	if cfg.AMQPURL != "" {
		events, aerr := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if aerr != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", aerr)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			result.Events = events
			prev := result.Cleanup
			result.Cleanup = func() error {
				if err := events.Close(); err != nil {
					f.logger.Warn("Failed to close AMQP client", "error", err)
				}
				if prev != nil {
					return prev()
				}
				return nil
			}
		}
	}

	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(cfg Config) (*Result, error) {
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	return &Result{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*Result, error) {
	cli, err := google.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*Result, error) {
	s := memory.New()
	// Non-persistent, so the tables are created eagerly.
	if err := s.Setup(ctx); err != nil {
		return nil, fmt.Errorf("failed to set up memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend")

	return &Result{Backend: s}, nil
}

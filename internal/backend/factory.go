package backend

import (
	"context"
	"fmt"

	"finsheets/internal/amqp"
	"finsheets/internal/config"
	"finsheets/internal/log"
	"finsheets/internal/services"
	"finsheets/internal/sheets/memory"
	"finsheets/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	openers map[BackendType]RepositoryOpener
}

// Option customizes a DefaultFactory.
type Option func(*DefaultFactory)

// WithOpener registers how repositories of type t are opened. Drivers that
// need cgo are registered by the binaries that link them.
func WithOpener(t BackendType, open RepositoryOpener) Option {
	return func(f *DefaultFactory) {
		f.openers[t] = open
	}
}

func NewFactory(logger *log.Logger, opts ...Option) *DefaultFactory {
	if logger == nil {
		logger = log.Default()
	}
	f := &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		openers: map[BackendType]RepositoryOpener{
			SQLiteBackend: func(c Config) (*storage.Repository, error) {
				return storage.NewSQLiteRepository(config.SQLitePath(c.DatabaseURL))
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend, LibSQLBackend:
		return f.createSQLBackend(ctx, cfg)
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return &BackendResult{Backend: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	open, ok := f.openers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("backend %s is not available in this binary", cfg.Type)
	}

	repo, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", cfg.Type, err)
	}

	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewSheetService(repo, publisher, f.logger)

	f.logger.InfoContext(ctx, "Initialized SQL backend",
		"type", cfg.Type.String(),
		"events_enabled", publisher != nil)

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
	}, nil
}

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"xjsf/internal/models"
)

// Factory creates roster sources from configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a factory whose sources log through logger.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create instantiates the roster source named by config.Source.
// Supported sources:
//   - none: no roster; every caller is an unlimited anonymous client
//   - file: XML or YAML roster document
//   - memory: roster held in process, populated programmatically
//   - postgres: PostgreSQL tables
//   - sqlite: SQLite tables
//   - mongo: a single roster document in a MongoDB collection
func (f *Factory) Create(ctx context.Context, config models.RosterConfig) (RosterSource, error) {
	if err := f.ValidateConfig(config); err != nil {
		return nil, err
	}

	switch config.Source {
	case models.RosterSourceNone:
		return NoRoster{}, nil
	case models.RosterSourceFile:
		return NewFileSource(config.Path, f.logger), nil
	case models.RosterSourceMemory:
		return NewMemorySource(nil), nil
	case models.RosterSourcePostgres:
		src, err := NewPostgresSource(ctx, config.DSN)
		if err != nil {
			return nil, err
		}
		return src, nil
	case models.RosterSourceSQLite:
		src, err := NewSQLiteSource(ctx, config.DSN)
		if err != nil {
			return nil, err
		}
		return src, nil
	case models.RosterSourceMongo:
		src, err := NewMongoSource(ctx, config.DSN, config.Database, config.Collection)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported roster source: %s", config.Source)
	}
}

// GetSupportedProviders returns every roster source name.
func (f *Factory) GetSupportedProviders() []string {
	return []string{
		models.RosterSourceNone,
		models.RosterSourceFile,
		models.RosterSourceMemory,
		models.RosterSourcePostgres,
		models.RosterSourceSQLite,
		models.RosterSourceMongo,
	}
}

// ValidateConfig checks that config names a source and carries what it needs.
func (f *Factory) ValidateConfig(config models.RosterConfig) error {
	switch config.Source {
	case models.RosterSourceNone, models.RosterSourceMemory:
	case models.RosterSourceFile:
		if config.Path == "" {
			return fmt.Errorf("path is required for file roster")
		}
	case models.RosterSourcePostgres, models.RosterSourceSQLite:
		if config.DSN == "" {
			return fmt.Errorf("dsn is required for %s roster", config.Source)
		}
	case models.RosterSourceMongo:
		if config.DSN == "" || config.Database == "" {
			return fmt.Errorf("dsn and database are required for mongo roster")
		}
	default:
		return fmt.Errorf("unsupported roster source: %s", config.Source)
	}
	return nil
}

// NoRoster is the "none" source.
type NoRoster struct{}

func (NoRoster) LoadRoster(context.Context) (*models.Roster, error) { return nil, nil }

func (NoRoster) Close() error { return nil }

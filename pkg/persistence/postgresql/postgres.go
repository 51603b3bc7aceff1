// Package postgresql implements the engine's collaborators over the clinical PostgreSQL database.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/saviser/automation/pkg/persistence/sqlbase"
)

// DefaultWindow matches the default one minute tick.
const DefaultWindow = time.Minute

// Store implements persistence.Persistence for PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	window time.Duration
}

type Option func(*Store)

// WithWindow sets how far apart two snapshot ticks are, so that time-based records are returned
// by exactly one tick.
func WithWindow(window time.Duration) Option {
	return func(s *Store) {
		if window > 0 {
			s.window = window
		}
	}
}

// NewStore connects to databaseURL and applies pending migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string, opts ...Option) (*Store, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{
		db:     database,
		logger: logger.With("module", "postgresql"),
		window: DefaultWindow,
	}

	for _, opt := range opts {
		opt(store)
	}

	migrationManager := sqlbase.NewMigrationManager(store.logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close(ctx context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saviser/automation/pkg/persistence"
	"github.com/saviser/automation/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"postgres", "postgresql"}

// NewPersistence opens the clinical database named by databaseURL. An empty URL returns nil:
// the engine then runs without storage-backed actions or snapshot records.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, window time.Duration) (persistence.Persistence, error) {
	if databaseURL == "" {
		return nil, nil
	}

	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		store, err := postgresql.NewStore(ctx, logger, databaseURL, postgresql.WithWindow(window))
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return provider
}

package catalog

import (
	"context"
	"fmt"

	"github.com/initgrep/blogsearch/pkg/config"
	"github.com/initgrep/blogsearch/pkg/postgres"
)

// Open loads the catalog from the configured source. A Postgres connection
// is only held for the duration of the load.
func Open(ctx context.Context, cfg config.CatalogConfig, pg config.PostgresConfig) (*Store, error) {
	switch cfg.Source {
	case config.SourceFile:
		return LoadFile(cfg.Path)
	case config.SourcePostgres:
		client, err := postgres.New(pg)
		if err != nil {
			return nil, fmt.Errorf("opening catalog database: %w", err)
		}
		defer client.Close()
		return LoadPostgres(ctx, client.DB, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/initgrep/blogsearch/pkg/resilience"
	"github.com/lib/pq"
)

// Querier is the subset of *sql.DB the Postgres loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadPostgres reads the catalog from table, newest post first. The table
// needs the columns id, title, author, category, url, meta and published_at;
// rows with an empty or NULL id are keyed by the slug of their url. A NULL
// title or url leaves the field empty, which Load reports as malformed.
func LoadPostgres(ctx context.Context, db Querier, table string) (*Store, error) {
	query := fmt.Sprintf(
		`SELECT id, title, author, category, url, meta, published_at
		   FROM %s
		  ORDER BY published_at DESC NULLS LAST, id`,
		pq.QuoteIdentifier(table),
	)

	var records []Record
	err := resilience.Retry(ctx, "catalog-load", resilience.RetryConfig{}, func() error {
		var err error
		records, err = queryRecords(ctx, db, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog from table %s: %w", table, err)
	}
	return Load(records)
}

func queryRecords(ctx context.Context, db Querier, query string) ([]Record, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			id, title, url         sql.NullString
			author, category, meta sql.NullString
			publishedAt            pq.NullTime
		)
		// A row that does not scan will not scan on the next attempt either.
		if err := rows.Scan(&id, &title, &author, &category, &url, &meta, &publishedAt); err != nil {
			return nil, resilience.Permanent(fmt.Errorf("scanning post row: %w", err))
		}
		rec := Record{
			ID:       id.String,
			Title:    title.String,
			Author:   author.String,
			Category: category.String,
			URL:      url.String,
			Meta:     meta.String,
		}
		if rec.ID == "" {
			rec.ID = Slugify(rec.URL)
		}
		if publishedAt.Valid {
			rec.Date = publishedAt.Time.UTC().Format(time.RFC3339)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post rows: %w", err)
	}
	return records, nil
}

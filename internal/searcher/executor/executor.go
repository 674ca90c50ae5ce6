package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/initgrep/blogsearch/internal/indexer"
	"github.com/initgrep/blogsearch/internal/presenter"
	"github.com/initgrep/blogsearch/internal/searcher/parser"
	"github.com/initgrep/blogsearch/pkg/logger"
)

type SearchResult struct {
	Query     string          `json:"query"`
	TotalHits int             `json:"total_hits"`
	Results   []presenter.Hit `json:"results"`
}

type Executor struct {
	engine *indexer.Engine
	now    func() time.Time
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		now:    time.Now,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs plan against the engine and returns at most limit
// presentable hits (all when limit <= 0).
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked, total, err := e.engine.Search(plan.Terms, limit)
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", plan.RawQuery, err)
	}
	if plan.Empty() {
		return &SearchResult{
			Query:   plan.RawQuery,
			Results: []presenter.Hit{},
		}, nil
	}
	store, err := e.engine.Store()
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", plan.RawQuery, err)
	}
	hits := presenter.Present(ranked, store, e.now())
	e.logger.Info("query executed",
		"request_id", logger.RequestID(ctx),
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"candidates", total,
		"results", len(hits),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		TotalHits: total,
		Results:   hits,
	}, nil
}

// Package indexer owns the lifecycle of the search index: it is built once
// from a catalog.Store and then answers queries until the process exits.
package indexer

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer/index"
	"github.com/initgrep/blogsearch/internal/indexer/tokenizer"
	"github.com/initgrep/blogsearch/internal/searcher/ranker"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

// Stats describes the currently built index.
type Stats struct {
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	Tokens      int       `json:"tokens"`
	Fingerprint string    `json:"fingerprint"`
	BuiltAt     time.Time `json:"built_at"`
}

type built struct {
	idx   *index.Index
	store *catalog.Store
	stats Stats
}

// Engine serves queries against a built index. The index is published with a
// single atomic store and never mutated, so Query is safe for concurrent use.
type Engine struct {
	weights          index.Weights
	requireDocuments bool
	current          atomic.Pointer[built]
	logger           *slog.Logger
}

type Option func(*Engine)

// WithRequireDocuments makes Build fail with ErrEmptyStore on an empty
// catalog instead of publishing an empty index.
func WithRequireDocuments(required bool) Option {
	return func(e *Engine) {
		e.requireDocuments = required
	}
}

func New(weights index.Weights, opts ...Option) *Engine {
	e := &Engine{
		weights: weights,
		logger:  slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build indexes every document of store. On error the previously built
// index, if any, stays in place.
func (e *Engine) Build(store *catalog.Store) error {
	if store == nil {
		return fmt.Errorf("building index: %w: nil store", apperrors.ErrInvalidInput)
	}
	if e.requireDocuments && store.Len() == 0 {
		return fmt.Errorf("building index: %w", apperrors.ErrEmptyStore)
	}
	start := time.Now()
	idx, err := index.Build(store.All(), e.weights)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	b := &built{
		idx:   idx,
		store: store,
		stats: Stats{
			Documents:   idx.DocCount(),
			Terms:       idx.TermCount(),
			Tokens:      idx.TokenCount(),
			Fingerprint: store.Fingerprint(),
			BuiltAt:     time.Now().UTC(),
		},
	}
	e.current.Store(b)
	e.logger.Info("search index built",
		"documents", b.stats.Documents,
		"terms", b.stats.Terms,
		"tokens", b.stats.Tokens,
		"duration", time.Since(start),
	)
	return nil
}

// Query tokenizes text and returns every matching document, best first.
func (e *Engine) Query(text string) ([]ranker.ScoredDoc, error) {
	results, _, err := e.Search(tokenizer.Terms(text), 0)
	return results, err
}

// Search scores already normalised terms. A document matches when any term
// hits it; its score is the sum of its per-term scores, with a term that
// occurs twice in terms counted twice. It returns at most limit results
// (all when limit <= 0) and the total number of matches.
func (e *Engine) Search(terms []string, limit int) ([]ranker.ScoredDoc, int, error) {
	b := e.current.Load()
	if b == nil {
		return nil, 0, apperrors.ErrIndexNotBuilt
	}
	if len(terms) == 0 {
		return []ranker.ScoredDoc{}, 0, nil
	}
	scores := make(map[string]float64)
	for _, term := range terms {
		for _, p := range b.idx.Lookup(term) {
			scores[p.DocID] += p.Score
		}
	}
	ranked := ranker.Rank(scores, 0)
	total := len(ranked)
	if limit > 0 && total > limit {
		ranked = ranked[:limit]
	}
	e.logger.Debug("query scored",
		"terms", terms,
		"matches", total,
	)
	return ranked, total, nil
}

// Store returns the catalog the current index was built from.
func (e *Engine) Store() (*catalog.Store, error) {
	b := e.current.Load()
	if b == nil {
		return nil, apperrors.ErrIndexNotBuilt
	}
	return b.store, nil
}

// Index returns the current index.
func (e *Engine) Index() (*index.Index, error) {
	b := e.current.Load()
	if b == nil {
		return nil, apperrors.ErrIndexNotBuilt
	}
	return b.idx, nil
}

func (e *Engine) Stats() (Stats, error) {
	b := e.current.Load()
	if b == nil {
		return Stats{}, apperrors.ErrIndexNotBuilt
	}
	return b.stats, nil
}

func (e *Engine) Built() bool {
	return e.current.Load() != nil
}

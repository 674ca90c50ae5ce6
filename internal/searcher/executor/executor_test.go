package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer"
	"github.com/initgrep/blogsearch/internal/indexer/index"
	"github.com/initgrep/blogsearch/internal/searcher/parser"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	store, err := catalog.Load([]catalog.Record{
		{ID: "b", Title: "Publisher-Subscriber pattern", URL: "/b", Meta: "Observer pattern extension", Date: "2024-05-25"},
		{ID: "a", Title: "Observer pattern in Javascript", URL: "/a", Author: "sheikh irshad"},
		{ID: "c", Title: "Groovy closures", Category: "groovy", URL: "/c"},
	})
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	engine := indexer.New(index.DefaultWeights())
	if err := engine.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	e := New(engine)
	e.now = func() time.Time { return now }
	return e
}

func TestExecute(t *testing.T) {
	e := newExecutor(t)
	result, err := e.Execute(context.Background(), parser.Parse("Observer"), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Query != "Observer" || result.TotalHits != 2 || len(result.Results) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	first, second := result.Results[0], result.Results[1]
	if first.ID != "a" || first.Author != "sheikh irshad" || first.Score != 10 {
		t.Errorf("unexpected first hit %+v", first)
	}
	if second.ID != "b" || second.Age != "1 week ago" {
		t.Errorf("unexpected second hit %+v", second)
	}
}

func TestExecuteLimit(t *testing.T) {
	e := newExecutor(t)
	result, err := e.Execute(context.Background(), parser.Parse("pattern groovy"), 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 3 || len(result.Results) != 1 {
		t.Errorf("TotalHits=%d len=%d, want 3 and 1", result.TotalHits, len(result.Results))
	}
}

func TestExecuteEmptyQuery(t *testing.T) {
	e := newExecutor(t)
	result, err := e.Execute(context.Background(), parser.Parse("  "), 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Results == nil || len(result.Results) != 0 || result.TotalHits != 0 {
		t.Errorf("unexpected result for empty query %+v", result)
	}
}

func TestExecuteIndexNotBuilt(t *testing.T) {
	e := New(indexer.New(index.DefaultWeights()))
	_, err := e.Execute(context.Background(), parser.Parse("observer"), 10)
	if !errors.Is(err, apperrors.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	e := newExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, parser.Parse("observer"), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

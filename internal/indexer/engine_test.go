package indexer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer/index"
	"github.com/initgrep/blogsearch/internal/searcher/ranker"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

func mustStore(t testing.TB, records ...catalog.Record) *catalog.Store {
	t.Helper()
	store, err := catalog.Load(records)
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return store
}

func blogStore(t testing.TB) *catalog.Store {
	t.Helper()
	return mustStore(t,
		catalog.Record{ID: "B", Title: "Publisher-Subscriber pattern", Category: "Design-pattern", URL: "/b", Meta: "Observer pattern extension"},
		catalog.Record{ID: "A", Title: "Observer pattern in Javascript", Category: "Design-pattern", URL: "/a", Meta: "..."},
		catalog.Record{ID: "C", Title: "Groovy : simplifying SAM type as closures", Author: "sheikh irshad", Category: "groovy", URL: "/c", Meta: "A SAM type is a type which defines a single abstract method"},
		catalog.Record{ID: "D", Title: "Use Groovy Closure to create a tree data structure", Author: "sheikh irshad", Category: "groovy", URL: "/d", Meta: "Closure is an open, anonymous, block of code"},
	)
}

func builtEngine(t testing.TB) *Engine {
	t.Helper()
	e := New(index.DefaultWeights())
	if err := e.Build(blogStore(t)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return e
}

func ids(results []ranker.ScoredDoc) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.DocID)
	}
	return out
}

func TestQueryObserverScenario(t *testing.T) {
	e := builtEngine(t)
	results, err := e.Query("observer")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got, want := ids(results), []string{"A", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Query(observer) = %v, want %v", got, want)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("title match must outscore summary match: %v", results)
	}
}

func TestQueryNoMatch(t *testing.T) {
	e := builtEngine(t)
	results, err := e.Query("zzznotfound")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Query(zzznotfound) = %#v, want empty slice", results)
	}
}

func TestQueryEmpty(t *testing.T) {
	e := builtEngine(t)
	for _, q := range []string{"", "   ", "-- !"} {
		results, err := e.Query(q)
		if err != nil {
			t.Fatalf("Query(%q): %v", q, err)
		}
		if len(results) != 0 {
			t.Errorf("Query(%q) = %v, want empty", q, results)
		}
	}
}

func TestQueryBeforeBuild(t *testing.T) {
	e := New(index.DefaultWeights())
	if _, err := e.Query("observer"); !errors.Is(err, apperrors.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
	if _, err := e.Store(); !errors.Is(err, apperrors.ErrIndexNotBuilt) {
		t.Errorf("Store() expected ErrIndexNotBuilt, got %v", err)
	}
	if _, err := e.Stats(); !errors.Is(err, apperrors.ErrIndexNotBuilt) {
		t.Errorf("Stats() expected ErrIndexNotBuilt, got %v", err)
	}
	if e.Built() {
		t.Error("Built() = true before Build")
	}
}

func TestQueryORSemanticsAndSummedScores(t *testing.T) {
	e := builtEngine(t)
	results, err := e.Query("observer groovy")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// A: observer in title (10). C, D: groovy in title and category (11).
	// B: observer in summary (1).
	want := []ranker.ScoredDoc{
		{DocID: "C", Score: 11},
		{DocID: "D", Score: 11},
		{DocID: "A", Score: 10},
		{DocID: "B", Score: 1},
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Query = %v, want %v", results, want)
	}

	combined, _ := e.Query("pattern observer")
	if combined[0].DocID != "A" || combined[0].Score != 10+1+10 {
		t.Errorf("scores must sum across query terms, got %v", combined)
	}
}

func TestQueryTieBreakByID(t *testing.T) {
	e := builtEngine(t)
	results, err := e.Query("closure")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// Only D contains "closure" (title + summary), C has "closures".
	if got := ids(results); !reflect.DeepEqual(got, []string{"D"}) {
		t.Fatalf("Query(closure) = %v", got)
	}

	results, _ = e.Query("sheikh")
	if got, want := ids(results), []string{"C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("equal scores must be ordered by ID: got %v, want %v", got, want)
	}
}

func TestQueryTitleTokensAlwaysFound(t *testing.T) {
	store := blogStore(t)
	e := New(index.DefaultWeights())
	if err := e.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, doc := range store.All() {
		for _, word := range strings.Fields(doc.Title) {
			results, err := e.Query(word)
			if err != nil {
				t.Fatalf("Query(%q): %v", word, err)
			}
			if len(strings.Trim(word, " :-")) == 0 {
				continue
			}
			found := false
			for _, r := range results {
				if r.DocID == doc.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("Query(%q) does not return %s", word, doc.ID)
			}
		}
	}
}

func TestQueryTitleOutweighsCategory(t *testing.T) {
	e := New(index.DefaultWeights())
	store := mustStore(t,
		catalog.Record{ID: "d1", Title: "Typescript basics", URL: "/1"},
		catalog.Record{ID: "d2", Title: "Static types", Category: "typescript", URL: "/2"},
	)
	if err := e.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	results, _ := e.Query("typescript")
	if len(results) != 2 || results[0].DocID != "d1" || results[0].Score <= results[1].Score {
		t.Errorf("title match must score strictly higher: %v", results)
	}
}

func TestQueryDeterministicAndBuildIdempotent(t *testing.T) {
	first := builtEngine(t)
	second := builtEngine(t)
	queries := []string{"observer", "groovy type", "pattern", "closure sam", "sheikh", "nothing here"}
	for _, q := range queries {
		a1, _ := first.Query(q)
		a2, _ := first.Query(q)
		b, _ := second.Query(q)
		if !reflect.DeepEqual(a1, a2) {
			t.Errorf("Query(%q) not deterministic: %v vs %v", q, a1, a2)
		}
		if !reflect.DeepEqual(a1, b) {
			t.Errorf("Query(%q) differs across builds: %v vs %v", q, a1, b)
		}
	}
}

func TestBuildEmptyStore(t *testing.T) {
	e := New(index.DefaultWeights())
	if err := e.Build(mustStore(t)); err != nil {
		t.Fatalf("Build(empty): %v", err)
	}
	results, err := e.Query("anything")
	if err != nil || len(results) != 0 {
		t.Errorf("Query on empty index = %v, %v", results, err)
	}

	strict := New(index.DefaultWeights(), WithRequireDocuments(true))
	if err := strict.Build(mustStore(t)); !errors.Is(err, apperrors.ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore, got %v", err)
	}
	if strict.Built() {
		t.Error("failed build must not publish an index")
	}
}

func TestBuildInvalidWeightsKeepsPreviousIndex(t *testing.T) {
	e := builtEngine(t)
	e.weights = index.Weights{index.FieldAuthor: 1}
	if err := e.Build(blogStore(t)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if results, err := e.Query("observer"); err != nil || len(results) != 2 {
		t.Errorf("previous index must survive a failed rebuild: %v, %v", results, err)
	}
}

func TestSearchLimit(t *testing.T) {
	e := builtEngine(t)
	results, total, err := e.Search([]string{"observer", "groovy"}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 4 || len(results) != 2 {
		t.Errorf("Search limit: total=%d len=%d", total, len(results))
	}
}

func TestStats(t *testing.T) {
	e := builtEngine(t)
	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 4 || stats.Terms == 0 || stats.Fingerprint == "" || stats.BuiltAt.IsZero() {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestConcurrentQueries(t *testing.T) {
	e := builtEngine(t)
	want, _ := e.Query("groovy observer")
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Query("groovy observer")
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- fmt.Errorf("got %v, want %v", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkQuery(b *testing.B) {
	records := make([]catalog.Record, 0, 2000)
	topics := []string{"angularjs", "typescript", "groovy", "jpa", "javascript", "design"}
	for i := 0; i < 2000; i++ {
		topic := topics[i%len(topics)]
		records = append(records, catalog.Record{
			ID:       fmt.Sprintf("post-%d", i),
			Title:    fmt.Sprintf("Notes on %s, part %d", topic, i),
			Author:   "sheikh irshad",
			Category: topic,
			URL:      fmt.Sprintf("/posts/%s/%d", topic, i),
			Meta:     "A short summary about " + topic + " and " + topics[(i+1)%len(topics)],
		})
	}
	e := New(index.DefaultWeights())
	if err := e.Build(mustStore(b, records...)); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Query(topics[i%len(topics)] + " notes"); err != nil {
			b.Fatal(err)
		}
	}
}

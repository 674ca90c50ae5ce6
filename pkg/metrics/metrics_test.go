package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	m.IndexDocuments.Set(42)

	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("hit")); got != 2 {
		t.Errorf("search_queries_total{hit} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.IndexDocuments); got != 42 {
		t.Errorf("index_documents = %v, want 42", got)
	}

	// Registering twice against the same registry must panic.
	defer func() {
		if recover() == nil {
			t.Error("expected duplicate registration to panic")
		}
	}()
	New(reg)
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHitsTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "cache_hits_total 1") {
		t.Errorf("scrape output missing cache_hits_total:\n%s", body)
	}
}

// Package presenter maps ranked search results to the fields the search
// widget renders.
package presenter

import (
	"time"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/searcher/ranker"
)

// Hit is one renderable search result.
type Hit struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Author   string     `json:"author"`
	Category string     `json:"category"`
	Summary  string     `json:"summary"`
	Date     *time.Time `json:"date,omitempty"`
	Age      string     `json:"age,omitempty"`
	Score    float64    `json:"score"`
}

// DocumentGetter looks documents up by ID; *catalog.Store satisfies it.
type DocumentGetter interface {
	Get(id string) (catalog.Document, error)
}

// Present resolves results against docs in result order. Results whose
// document cannot be found are skipped. now anchors the relative Age label.
func Present(results []ranker.ScoredDoc, docs DocumentGetter, now time.Time) []Hit {
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		doc, err := docs.Get(r.DocID)
		if err != nil {
			continue
		}
		hit := Hit{
			ID:       doc.ID,
			Title:    doc.Title,
			URL:      doc.URL,
			Author:   doc.Author,
			Category: doc.Category,
			Summary:  doc.Summary,
			Score:    r.Score,
		}
		if !doc.Date.IsZero() {
			date := doc.Date
			hit.Date = &date
			hit.Age = TimeSince(date, now)
		}
		hits = append(hits, hit)
	}
	return hits
}

// RefreshAges recomputes the Age label of every dated hit against now, for
// hits that were presented earlier and stored.
func RefreshAges(hits []Hit, now time.Time) {
	for i := range hits {
		if hits[i].Date != nil {
			hits[i].Age = TimeSince(*hits[i].Date, now)
		}
	}
}

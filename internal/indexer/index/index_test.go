package index

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/initgrep/blogsearch/internal/catalog"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

func sampleDocs() []catalog.Document {
	return []catalog.Document{
		{ID: "a", Title: "Observer pattern in Javascript", Author: "sheikh irshad", Category: "Design-pattern", URL: "/a", Summary: "Observer design pattern helps to decouple"},
		{ID: "b", Title: "Publisher-Subscriber pattern", Author: "sheikh irshad", Category: "Design-pattern", URL: "/b", Summary: "Observer pattern extension"},
		{ID: "c", Title: "Groovy closures", Category: "groovy", URL: "/c"},
	}
}

func TestBuildScores(t *testing.T) {
	idx, err := Build(sampleDocs(), DefaultWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tests := []struct {
		term  string
		docID string
		want  float64
	}{
		{"observer", "a", 10 + 1},
		{"observer", "b", 1},
		{"pattern", "a", 10 + 1 + 1},
		{"pattern", "b", 10 + 1 + 1},
		{"design", "a", 1 + 1},
		{"sheikh", "a", 1},
		{"groovy", "c", 10 + 1},
		{"groovy", "a", 0},
		{"missing", "a", 0},
	}
	for _, tt := range tests {
		if got := idx.Score(tt.term, tt.docID); got != tt.want {
			t.Errorf("Score(%q, %q) = %v, want %v", tt.term, tt.docID, got, tt.want)
		}
	}
	if idx.DocCount() != 3 {
		t.Errorf("DocCount() = %d, want 3", idx.DocCount())
	}
}

func TestBuildTermFrequency(t *testing.T) {
	docs := []catalog.Document{{ID: "x", Title: "go go go", URL: "/x", Summary: "go"}}
	idx, err := Build(docs, DefaultWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.Score("go", "x"); got != 31 {
		t.Errorf("Score = %v, want 3*10 + 1", got)
	}
	if idx.TokenCount() != 4 || idx.TermCount() != 1 {
		t.Errorf("TokenCount=%d TermCount=%d", idx.TokenCount(), idx.TermCount())
	}
}

func TestBuildSkipsUnweightedFields(t *testing.T) {
	weights := Weights{FieldTitle: 5, FieldSummary: 2}
	idx, err := Build(sampleDocs(), weights)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := idx.Lookup("sheikh"); got != nil {
		t.Errorf("author is not weighted, expected no postings, got %v", got)
	}
	if got := idx.Score("observer", "a"); got != 7 {
		t.Errorf("Score = %v, want 5 + 2", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	idx, err := Build(nil, DefaultWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TermCount() != 0 || idx.DocCount() != 0 || len(idx.Snapshot()) != 0 {
		t.Error("expected an empty index")
	}
}

func TestBuildOnlyStoreDocuments(t *testing.T) {
	docs := sampleDocs()
	idx, err := Build(docs, DefaultWeights())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	known := make(map[string]bool)
	for _, d := range docs {
		known[d.ID] = true
	}
	for _, entry := range idx.Snapshot() {
		if entry.Term == "" {
			t.Error("empty term indexed")
		}
		for _, p := range entry.Postings {
			if !known[p.DocID] {
				t.Errorf("term %q has posting for unknown doc %q", entry.Term, p.DocID)
			}
			if p.Score <= 0 {
				t.Errorf("term %q doc %q has non-positive score %v", entry.Term, p.DocID, p.Score)
			}
		}
	}
}

func TestLookupSorted(t *testing.T) {
	idx, _ := Build(sampleDocs(), DefaultWeights())
	got := idx.Lookup("pattern")
	want := PostingList{{DocID: "a", Score: 12}, {DocID: "b", Score: 12}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup(pattern) = %v, want %v", got, want)
	}
}

func TestBuildIdempotent(t *testing.T) {
	first, _ := Build(sampleDocs(), DefaultWeights())
	second, _ := Build(sampleDocs(), DefaultWeights())
	if !reflect.DeepEqual(first.Snapshot(), second.Snapshot()) {
		t.Error("two builds from the same input differ")
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"title only", Weights{FieldTitle: 1}, false},
		{"empty", Weights{}, true},
		{"no title", Weights{FieldAuthor: 1}, true},
		{"zero weight", Weights{FieldTitle: 10, FieldAuthor: 0}, true},
		{"negative title", Weights{FieldTitle: -1}, true},
		{"title not greatest", Weights{FieldTitle: 2, FieldSummary: 2}, true},
		{"unknown field", Weights{FieldTitle: 10, Field("body"): 1}, true},
		{"nan weight", Weights{FieldTitle: 10, FieldSummary: math.NaN()}, true},
		{"nan title", Weights{FieldTitle: math.NaN(), FieldSummary: 1}, true},
		{"infinite title", Weights{FieldTitle: math.Inf(1), FieldSummary: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights(map[string]float64{"Title": 8, "meta": 2, "category": 1})
	if err != nil {
		t.Fatalf("ParseWeights: %v", err)
	}
	want := Weights{FieldTitle: 8, FieldSummary: 2, FieldCategory: 1}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("ParseWeights = %v, want %v", w, want)
	}
	if _, err := ParseWeights(map[string]float64{"title": 10, "body": 1}); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := Build(nil, Weights{FieldAuthor: 3}); err == nil {
		t.Error("Build must reject an invalid weight table")
	}
}

func BenchmarkBuild(b *testing.B) {
	docs := make([]catalog.Document, 0, 1000)
	for i := 0; i < 1000; i++ {
		docs = append(docs, catalog.Document{
			ID:       fmt.Sprintf("post-%d", i),
			Title:    fmt.Sprintf("Understanding directives part %d", i),
			Author:   "sheikh irshad",
			Category: "angularjs",
			URL:      fmt.Sprintf("/posts/%d", i),
			Summary:  "Directives are created using angular.directive API which takes a directive name followed by a factory function.",
		})
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(docs, DefaultWeights()); err != nil {
			b.Fatal(err)
		}
	}
}

// Package index builds the inverted index the blog search runs on. An Index
// maps every term found in the weighted fields of a document catalog to the
// accumulated, field-boosted score of each document containing it. It is
// built in one pass and never modified, so it can be shared freely between
// goroutines.
package index

import (
	"sort"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer/tokenizer"
)

type Index struct {
	postings   map[string]map[string]float64
	docCount   int
	tokenCount int
}

// Build indexes docs with the given weights. For every configured field of
// every document, each token adds weights[field] to that document's score for
// the token, so repeated words count once per occurrence.
func Build(docs []catalog.Document, weights Weights) (*Index, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	idx := &Index{
		postings: make(map[string]map[string]float64),
		docCount: len(docs),
	}
	for _, doc := range docs {
		for _, field := range Fields {
			weight, ok := weights[field]
			if !ok {
				continue
			}
			for _, token := range tokenizer.Tokenize(field.Text(doc)) {
				scores, exists := idx.postings[token.Term]
				if !exists {
					scores = make(map[string]float64)
					idx.postings[token.Term] = scores
				}
				scores[doc.ID] += weight
				idx.tokenCount++
			}
		}
	}
	return idx, nil
}

// Lookup returns the postings for an already normalised term.
func (idx *Index) Lookup(term string) PostingList {
	docs, exists := idx.postings[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for docID, score := range docs {
		result = append(result, Posting{DocID: docID, Score: score})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// Score is the accumulated score of docID for term, zero when absent.
func (idx *Index) Score(term, docID string) float64 {
	return idx.postings[term][docID]
}

// Snapshot lists every term with its postings, both sorted.
func (idx *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(idx.postings))
	for term := range idx.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: idx.Lookup(term),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (idx *Index) DocCount() int {
	return idx.docCount
}

func (idx *Index) TermCount() int {
	return len(idx.postings)
}

// TokenCount is the number of field tokens that went into the index.
func (idx *Index) TokenCount() int {
	return idx.tokenCount
}

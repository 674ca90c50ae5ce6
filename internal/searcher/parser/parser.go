// Package parser turns raw search box input into a query plan.
package parser

import (
	"slices"
	"strings"

	"github.com/initgrep/blogsearch/internal/indexer/tokenizer"
)

// QueryPlan holds the normalised terms of a query. Terms keeps duplicates
// and input order; every term contributes to the score, matched with OR
// semantics.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

func Parse(query string) *QueryPlan {
	return &QueryPlan{
		Terms:    tokenizer.Terms(query),
		RawQuery: query,
	}
}

// Empty reports whether the plan has nothing to look up.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Normalized is the canonical form of the plan, used to key cached results.
// Scores are sums over terms, so term order is irrelevant and dropped here;
// repeated terms are kept because they change the score.
func (p *QueryPlan) Normalized() string {
	terms := slices.Clone(p.Terms)
	slices.Sort(terms)
	return strings.Join(terms, " ")
}

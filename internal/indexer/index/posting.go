package index

// Posting is the weighted contribution of one term to one document: the sum
// over indexed fields of weight(field) * frequency(term, field).
type Posting struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// PostingList is sorted by DocID.
type PostingList []Posting

// TermEntry pairs a term with its postings.
type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}

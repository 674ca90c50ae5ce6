// Package catalog holds the immutable set of blog posts the search index is
// built from. A Store is loaded once at startup, either from the generated
// data.js script the static site ships or from a Postgres table, and is only
// read afterwards.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

// Document is a single post as the search widget sees it.
type Document struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Category string    `json:"category"`
	URL      string    `json:"url"`
	Summary  string    `json:"summary"`
	Date     time.Time `json:"date,omitzero"`
}

// Record is one raw entry of the catalog source. ID comes from the key of the
// data.store object rather than from the entry body.
type Record struct {
	ID       string `json:"-"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	URL      string `json:"url"`
	Meta     string `json:"meta"`
	Date     string `json:"date"`
}

// MalformedDocumentError reports a record that cannot become a Document. It
// matches apperrors.ErrMalformedDocument under errors.Is.
type MalformedDocumentError struct {
	Index  int
	ID     string
	Fields map[string]string
}

func (e *MalformedDocumentError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, field := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return fmt.Sprintf("malformed document %q (record %d): %s", e.ID, e.Index, strings.Join(parts, "; "))
}

func (e *MalformedDocumentError) Unwrap() error {
	return apperrors.ErrMalformedDocument
}

var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02",
	"02-01-2006",
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// toDocument validates r and converts it. seen holds the IDs accepted so far.
func toDocument(index int, r Record, seen map[string]struct{}) (Document, error) {
	errs := make(map[string]string)

	id := strings.TrimSpace(r.ID)
	if id == "" {
		errs["id"] = "identifier is required"
	} else if _, dup := seen[id]; dup {
		errs["id"] = "identifier is not unique"
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		errs["title"] = "title is required"
	}
	url := strings.TrimSpace(r.URL)
	if url == "" {
		errs["url"] = "url is required"
	}

	var date time.Time
	if d := strings.TrimSpace(r.Date); d != "" {
		parsed, err := parseDate(d)
		if err != nil {
			errs["date"] = err.Error()
		}
		date = parsed
	}

	if len(errs) > 0 {
		return Document{}, &MalformedDocumentError{Index: index, ID: id, Fields: errs}
	}
	return Document{
		ID:       id,
		Title:    title,
		Author:   strings.TrimSpace(r.Author),
		Category: strings.TrimSpace(r.Category),
		URL:      url,
		Summary:  strings.TrimSpace(r.Meta),
		Date:     date,
	}, nil
}

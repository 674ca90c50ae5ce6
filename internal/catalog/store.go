package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"

	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

// Store maps document IDs to Documents. It has no mutating methods; every
// accessor returns copies.
type Store struct {
	docs        []Document
	byID        map[string]int
	fingerprint string
}

// Load validates records and builds a Store in record order. The first
// malformed record aborts the load with a *MalformedDocumentError. An empty
// record list is a valid, empty Store.
func Load(records []Record) (*Store, error) {
	s := &Store{
		docs: make([]Document, 0, len(records)),
		byID: make(map[string]int, len(records)),
	}
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		doc, err := toDocument(i, r, seen)
		if err != nil {
			return nil, err
		}
		seen[doc.ID] = struct{}{}
		s.byID[doc.ID] = len(s.docs)
		s.docs = append(s.docs, doc)
	}
	s.fingerprint = computeFingerprint(s.docs)
	return s, nil
}

// LoadFile reads a data.js script or JSON object from path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	defer f.Close()
	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	return Load(records)
}

func (s *Store) Get(id string) (Document, error) {
	i, ok := s.byID[id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %q", apperrors.ErrDocumentNotFound, id)
	}
	return s.docs[i], nil
}

// All returns every document in source order.
func (s *Store) All() []Document {
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Store) Len() int {
	return len(s.docs)
}

// Newest returns the documents sorted by date, newest first. Undated
// documents keep their source order after all dated ones.
func (s *Store) Newest() []Document {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date, out[j].Date
		if di.IsZero() != dj.IsZero() {
			return !di.IsZero()
		}
		return di.After(dj)
	})
	return out
}

// Fingerprint is a stable hash of the store contents. It changes whenever any
// document or the document order changes.
func (s *Store) Fingerprint() string {
	return s.fingerprint
}

func computeFingerprint(docs []Document) string {
	h := sha256.New()
	for _, doc := range docs {
		for _, field := range []string{doc.ID, doc.Title, doc.Author, doc.Category, doc.URL, doc.Summary} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		if !doc.Date.IsZero() {
			h.Write([]byte(strconv.FormatInt(doc.Date.Unix(), 10)))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

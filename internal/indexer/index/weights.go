package index

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/initgrep/blogsearch/internal/catalog"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

// Field names an indexed document field.
type Field string

const (
	FieldTitle    Field = "title"
	FieldAuthor   Field = "author"
	FieldCategory Field = "category"
	FieldSummary  Field = "summary"
)

// Fields is the fixed order fields are indexed in. Keeping it fixed keeps
// floating point accumulation, and therefore scores, identical across builds.
var Fields = []Field{FieldTitle, FieldAuthor, FieldCategory, FieldSummary}

// Text returns the value of f in doc.
func (f Field) Text(doc catalog.Document) string {
	switch f {
	case FieldTitle:
		return doc.Title
	case FieldAuthor:
		return doc.Author
	case FieldCategory:
		return doc.Category
	case FieldSummary:
		return doc.Summary
	default:
		return ""
	}
}

func (f Field) valid() bool {
	switch f {
	case FieldTitle, FieldAuthor, FieldCategory, FieldSummary:
		return true
	}
	return false
}

// Weights is the field boost table. A field missing from the table is not
// indexed.
type Weights map[Field]float64

// DefaultWeights boosts title matches tenfold over every other field.
func DefaultWeights() Weights {
	return Weights{
		FieldTitle:    10,
		FieldAuthor:   1,
		FieldCategory: 1,
		FieldSummary:  1,
	}
}

// ParseWeights converts a name-keyed table, as found in configuration, and
// validates it. Field names are case-insensitive; "meta" is accepted as an
// alias of summary.
func ParseWeights(raw map[string]float64) (Weights, error) {
	w := make(Weights, len(raw))
	for name, weight := range raw {
		f := Field(strings.ToLower(strings.TrimSpace(name)))
		if f == "meta" {
			f = FieldSummary
		}
		if !f.valid() {
			return nil, fmt.Errorf("%w: unknown field %q in weight table", apperrors.ErrInvalidInput, name)
		}
		w[f] = weight
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks that every weight is positive and finite, that the title is indexed,
// and that title outweighs every other field.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: weight table is empty", apperrors.ErrInvalidInput)
	}
	title, ok := w[FieldTitle]
	if !ok {
		return fmt.Errorf("%w: weight table has no title weight", apperrors.ErrInvalidInput)
	}
	fields := make([]string, 0, len(w))
	for f := range w {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, name := range fields {
		f := Field(name)
		weight := w[f]
		if !f.valid() {
			return fmt.Errorf("%w: unknown field %q in weight table", apperrors.ErrInvalidInput, f)
		}
		if !(weight > 0) || math.IsInf(weight, 0) {
			return fmt.Errorf("%w: weight for %s must be positive and finite, got %v", apperrors.ErrInvalidInput, f, weight)
		}
		if f != FieldTitle && weight >= title {
			return fmt.Errorf("%w: title weight %v must exceed %s weight %v", apperrors.ErrInvalidInput, title, f, weight)
		}
	}
	return nil
}

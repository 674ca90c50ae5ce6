package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"unicode"

	apperrors "github.com/initgrep/blogsearch/pkg/errors"
)

var storeAssignment = []byte("data.store")

// Decode reads the catalog source: either a bare JSON object or the generated
// script
//
//	---
//	---
//	var data = {};
//	data.store = { "<id>": {"title": ..., "meta": ...}, ... };
//
// Records come back in the order they appear in the object. The generator
// xml-escapes title, author, category and url, so those are unescaped here,
// and the trailing comma it leaves after the last record is accepted.
func Decode(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog source: %w", err)
	}
	obj, err := storeObject(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(stripTrailingCommas(obj)))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformedSource(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, malformedSource(fmt.Errorf("expected record key, got %v", tok))
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, malformedSource(fmt.Errorf("record %q: %w", key, err))
		}
		rec.ID = key
		rec.Title = html.UnescapeString(rec.Title)
		rec.Author = html.UnescapeString(rec.Author)
		rec.Category = html.UnescapeString(rec.Category)
		rec.URL = html.UnescapeString(rec.URL)
		records = append(records, rec)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return records, nil
}

// storeObject returns the bytes starting at the opening brace of the bare
// JSON object, or of the data.store object of a script.
func storeObject(raw []byte) ([]byte, error) {
	body := bytes.TrimLeftFunc(skipFrontMatter(raw), unicode.IsSpace)
	if len(body) > 0 && body[0] == '{' {
		return body, nil
	}
	if i := bytes.Index(body, storeAssignment); i >= 0 {
		rest := body[i+len(storeAssignment):]
		if j := bytes.IndexByte(rest, '{'); j >= 0 {
			return rest[j:], nil
		}
		return nil, malformedSource(fmt.Errorf("data.store has no object literal"))
	}
	return nil, malformedSource(fmt.Errorf("catalog source is neither a data.store script nor a JSON object"))
}

// skipFrontMatter drops a leading Jekyll "---" ... "---" block.
func skipFrontMatter(raw []byte) []byte {
	body := bytes.TrimLeftFunc(raw, unicode.IsSpace)
	if !bytes.HasPrefix(body, []byte("---")) {
		return raw
	}
	rest := body[3:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return raw
	}
	rest = rest[end+4:]
	if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
		return rest[nl+1:]
	}
	return rest[len(rest):]
}

// stripTrailingCommas removes commas that are directly followed (ignoring
// whitespace) by a closing brace or bracket. String contents are untouched.
func stripTrailingCommas(src []byte) []byte {
	out := make([]byte, 0, len(src))
	inString, escaped := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' && closesNext(src[i+1:]) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func closesNext(rest []byte) bool {
	for _, c := range rest {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformedSource(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return malformedSource(fmt.Errorf("expected %q, got %v", want, tok))
	}
	return nil
}

func malformedSource(err error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrMalformedDocument, err)
}

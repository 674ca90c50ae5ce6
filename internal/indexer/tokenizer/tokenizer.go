// Package tokenizer turns post fields and search input into terms. It
// lower-cases the text and splits on every rune that is not a letter or a
// digit. There is no stemming and no stop-word list, so a query term matches
// exactly the words written in the post.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a single normalised term and its position in the original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lowercased Tokens. Empty text yields an empty,
// non-nil slice.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	tokens := make([]Token, 0, len(words))
	for pos, word := range words {
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
	}
	return tokens
}

// Terms is Tokenize without positions.
func Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	if words == nil {
		return []string{}
	}
	return words
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

package catalog

import (
	"strings"
	"unicode"
)

// Slugify derives a document ID from a post URL the way the site generator
// keys data.store: lower-case, each run of non-alphanumeric characters
// collapsed to one hyphen, hyphens trimmed from both ends.
//
//	/posts/javascript/design-patterns/publisher-Subscriber(pub-sub)
//	→ posts-javascript-design-patterns-publisher-subscriber-pub-sub
func Slugify(url string) string {
	var b strings.Builder
	b.Grow(len(url))
	pendingHyphen := false
	for _, r := range strings.ToLower(url) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

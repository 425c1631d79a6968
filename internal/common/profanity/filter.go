// Package profanity screens user-supplied text for disallowed words.
package profanity

import (
	"strings"

	"github.com/gosimple/slug"
)

var leetReplacer = strings.NewReplacer(
	"@", "a", "4", "a",
	"3", "e",
	"1", "i",
	"0", "o",
	"$", "s", "5", "s",
	"7", "t",
)

// Filter matches normalised words against a fixed list.
type Filter struct {
	words map[string]struct{}
}

// New returns a filter over the built-in English and Portuguese lists plus extra.
func New(extra ...string) *Filter {
	f := &Filter{words: make(map[string]struct{}, len(englishWords)+len(portugueseWords)+len(extra))}
	for _, list := range [][]string{englishWords, portugueseWords, extra} {
		for _, w := range list {
			if n := slug.Make(w); n != "" {
				f.words[strings.ReplaceAll(n, "-", "")] = struct{}{}
			}
		}
	}
	return f
}

// IsProfane reports whether text contains a listed word. Matching is per
// word after case folding, accent stripping and leetspeak folding, so
// "m3rd@" matches "merda" but "cultura" does not match "cu".
func (f *Filter) IsProfane(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	normalized := slug.Make(leetReplacer.Replace(strings.ToLower(text)))
	if normalized == "" {
		return false
	}
	words := strings.Split(normalized, "-")
	for _, w := range words {
		if f.match(w) {
			return true
		}
	}
	// spaced-out spelling, e.g. "p u t a"
	return len(words) > 1 && f.match(strings.Join(words, ""))
}

func (f *Filter) match(w string) bool {
	if _, ok := f.words[w]; ok {
		return true
	}
	if len(w) > 3 && strings.HasSuffix(w, "s") {
		_, ok := f.words[strings.TrimSuffix(w, "s")]
		return ok
	}
	return false
}

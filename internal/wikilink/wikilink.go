// Package wikilink extracts [[Title]] cross-reference targets from raw
// markup and classifies them against the set of existing note titles.
package wikilink

import (
	"regexp"
	"strings"
)

// targetRe matches [[Title]] spans. Titles may not contain brackets, so
// unbalanced or nested brackets simply fail to match.
var targetRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Extract returns the distinct wikilink targets found in text, trimmed,
// with empty targets dropped, in first-occurrence order.
func Extract(text string) []string {
	matches := targetRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Replace rewrites every [[Title]] span in text using f applied to the
// trimmed target. Spans with a blank target are left untouched.
func Replace(text string, f func(target string) string) string {
	return targetRe.ReplaceAllStringFunc(text, func(m string) string {
		target := strings.TrimSpace(targetRe.FindStringSubmatch(m)[1])
		if target == "" {
			return m
		}
		return f(target)
	})
}

// TitleSet is an immutable snapshot of known note titles.
type TitleSet map[string]struct{}

// NewTitleSet builds a TitleSet from a raw title list, trimming entries
// and dropping blanks. The list typically comes straight from the titles
// endpoint and may contain empty strings.
func NewTitleSet(titles []string) TitleSet {
	set := make(TitleSet, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether title is in the set. Matching is exact and
// case-sensitive.
func (s TitleSet) Contains(title string) bool {
	_, ok := s[title]
	return ok
}

// Missing returns the subsequence of targets that have no existing note
// and are not the note currently being edited. currentTitle is trimmed
// before comparison so a note can reference itself before it is saved.
func Missing(targets []string, existing TitleSet, currentTitle string) []string {
	current := strings.TrimSpace(currentTitle)
	var out []string
	for _, t := range targets {
		if existing.Contains(t) || t == current {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Package redact applies ordered literal substring replacement to free-text
// ledger fields before they are persisted or displayed.
package redact

import "strings"

// Rule is one pattern/replacement pair.
type Rule struct {
	Pattern     string
	Replacement string
}

// WordMap is an ordered replacement list. Order is part of the contract:
// each rule runs over the output of the previous one, so a later pattern may
// match text a former replacement introduced. Authors of the map account for
// that cascade.
type WordMap []Rule

// Apply runs every rule in map order as a full-text literal replacement.
// Empty input returns unchanged.
func Apply(text string, words WordMap) string {
	if text == "" {
		return text
	}
	for _, w := range words {
		if w.Pattern == "" {
			continue
		}
		text = strings.ReplaceAll(text, w.Pattern, w.Replacement)
	}
	return text
}

// Package normalize provides utilities for normalizing group keys and filter operands.
package normalize

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Token normalizes a single category or keyword token: null bytes dropped,
// surrounding whitespace trimmed, Unicode composed to NFC.
// Case is preserved; "Mars" and "mars" stay distinct buckets.
func Token(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}

// Tokens splits a comma-joined field and normalizes each part.
// Empty parts are dropped.
func Tokens(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := Token(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// collator is shared; collate.Collator is not safe for concurrent use.
//
//nolint:gochecknoglobals // Lazily built, guarded by collatorMu.
var (
	collatorMu sync.Mutex
	collator   *collate.Collator
)

// Less reports whether a sorts before b in English collation order.
// Used to break ties between equal counts so aggregate output is stable.
func Less(a, b string) bool {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	if collator == nil {
		collator = collate.New(language.English, collate.Loose)
	}
	if c := collator.CompareString(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

// SortStrings sorts keys in collation order.
func SortStrings(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
}

// sanitizeString removes null bytes from strings; some CSV exports carry them.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}

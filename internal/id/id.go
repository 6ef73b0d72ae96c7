// Package id mints the prefixed identifiers that address filters and stream
// clients over HTTP.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixFilter = "flt"
	PrefixClient = "sse"
)

// Lowercase alphanumerics keep ids readable in the filter list and safe in URL paths.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 12
)

// Generate returns prefix + "-" + a random 12 character suffix, e.g. "flt-3k9x0m2qpa7d".
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s has the shape Generate produces for prefix.
func Valid(s, prefix string) bool {
	suffix, ok := strings.CutPrefix(s, prefix+"-")
	if !ok || len(suffix) != size {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}

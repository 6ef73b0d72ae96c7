// Package domain contains the core entities of the sci-fi bookshelf dataset.
package domain

import (
	"strconv"
	"strings"
)

// Attribute names as they appear in the source dataset. Filters address books by these names.
const (
	AttrGoodreadsID  = "Goodreads Id"
	AttrTitle        = "Title"
	AttrAuthors      = "Authors"
	AttrYear         = "Year of Publication"
	AttrPlanet       = "Planet"
	AttrSummary      = "Summary"
	AttrKeywords     = "keywords"
	AttrSentiment    = "sentiment"
	AttrPolarity     = "polarity"
	AttrSubjectivity = "subjectivity"
)

// Book is one record of the dataset. Books are created once at load time and never mutated.
type Book struct {
	Extra       map[string]string `json:"extra,omitempty"`
	GoodreadsID string            `json:"goodreads_id"`
	Title       string            `json:"title"`
	Authors     string            `json:"authors"` // comma-joined
	Planet      string            `json:"planet"`  // comma-joined
	Summary     string            `json:"summary,omitempty"`
	Keywords    []KeywordCount    `json:"keywords,omitempty"`
	Sentiment   Sentiment         `json:"sentiment"`
	Year        int               `json:"year"`
}

// KeywordCount is a keyword associated with a book and how often it occurs in the book's text.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Sentiment is the derived (polarity, subjectivity) pair of a book's summary.
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// PlanetList splits the comma-joined planet field.
func (b *Book) PlanetList() []string {
	return SplitList(b.Planet)
}

// Text returns the textual value of a scalar attribute.
// The second return value is false when the book has no such attribute.
func (b *Book) Text(attr string) (string, bool) {
	switch attr {
	case AttrGoodreadsID:
		return b.GoodreadsID, true
	case AttrTitle:
		return b.Title, true
	case AttrAuthors:
		return b.Authors, true
	case AttrPlanet:
		return b.Planet, true
	case AttrSummary:
		return b.Summary, true
	case AttrYear:
		return strconv.Itoa(b.Year), true
	}
	v, ok := b.Extra[attr]
	return v, ok
}

// SplitList splits a comma-joined multi-value field into trimmed, non-empty parts.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

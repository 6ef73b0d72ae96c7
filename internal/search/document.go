// Package search provides full-text search over the bookshelf using Bleve.
// The index is built once from the loaded dataset and lives in memory; hits
// are addressed by Goodreads id so a result can become a "Book" filter.
package search

import (
	"github.com/listenupapp/bookshelf/internal/domain"
)

// Document is the indexed form of one book.
type Document struct {
	ID       string   `json:"id"` // Goodreads id
	Title    string   `json:"title"`
	Authors  string   `json:"authors,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Planets  []string `json:"planets,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Year     int      `json:"year,omitempty"`
}

// ToMap converts the document to a map whose keys match the index mapping.
// Empty fields are left out so they do not produce empty terms.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":    d.ID,
		"title": d.Title,
	}
	if d.Authors != "" {
		m["authors"] = d.Authors
	}
	if d.Summary != "" {
		m["summary"] = d.Summary
	}
	if len(d.Planets) > 0 {
		m["planets"] = d.Planets
	}
	if len(d.Keywords) > 0 {
		m["keywords"] = d.Keywords
	}
	if d.Year != 0 {
		m["year"] = d.Year
	}
	return m
}

// BookToDocument converts a domain Book to a Document.
func BookToDocument(b *domain.Book) *Document {
	doc := &Document{
		ID:      b.GoodreadsID,
		Title:   b.Title,
		Authors: b.Authors,
		Summary: b.Summary,
		Planets: b.PlanetList(),
		Year:    b.Year,
	}
	if len(b.Keywords) > 0 {
		doc.Keywords = make([]string, len(b.Keywords))
		for i, k := range b.Keywords {
			doc.Keywords[i] = k.Keyword
		}
	}
	return doc
}

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit is the page size when Params.Limit is not positive.
const DefaultLimit = 20

// facetSize bounds the values reported per facet.
const facetSize = 15

// Params configures a search.
type Params struct {
	Query   string // Free text; empty matches every book
	MinYear int    // Inclusive lower publication year, 0 for none
	MaxYear int    // Inclusive upper publication year, 0 for none
	Limit   int
	Offset  int
}

// Result is one page of hits plus facet counts over all matches.
type Result struct {
	Query  string `json:"query"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
}

// Hit is a matching book.
type Hit struct {
	Highlights  map[string]string `json:"highlights,omitempty"`
	GoodreadsID string            `json:"goodreads_id"`
	Title       string            `json:"title"`
	Authors     string            `json:"authors,omitempty"`
	Score       float64           `json:"score"`
	Year        int               `json:"year,omitempty"`
	// Selected is filled in by the caller from the current selection.
	Selected bool `json:"selected"`
}

// Facets counts matching books per planet and keyword.
type Facets struct {
	Planets  []FacetCount `json:"planets,omitempty"`
	Keywords []FacetCount `json:"keywords,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query, best matches first.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score"})
	req.AddFacet("planets", bleve.NewFacetRequest("planets", facetSize))
	req.AddFacet("keywords", bleve.NewFacetRequest("keywords", facetSize))
	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("authors")
		req.Highlight.AddField("summary")
	}
	req.Fields = []string{"title", "authors", "year"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
		Facets: Facets{
			Planets:  facetCounts(res, "planets"),
			Keywords: facetCounts(res, "keywords"),
		},
	}

	for _, h := range res.Hits {
		hit := Hit{GoodreadsID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		if a, ok := h.Fields["authors"].(string); ok {
			hit.Authors = a
		}
		if y, ok := h.Fields["year"].(float64); ok {
			hit.Year = int(y)
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

// buildQuery matches title with the highest boost, then authors, then the
// summary and keywords. Title also gets fuzzy and prefix matches so typos and
// partial words still find the book. A year range is ANDed on.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorsMatch := bleve.NewMatchQuery(q)
		authorsMatch.SetField("authors")
		authorsMatch.SetBoost(2.0)

		summaryMatch := bleve.NewMatchQuery(q)
		summaryMatch.SetField("summary")

		keywordMatch := bleve.NewTermQuery(q)
		keywordMatch.SetField("keywords")
		keywordMatch.SetBoost(1.5)

		textQueries := []query.Query{titleMatch, authorsMatch, summaryMatch, keywordMatch}

		lower := strings.ToLower(q)
		if !strings.ContainsAny(lower, " \t") {
			fuzzy := bleve.NewFuzzyQuery(lower)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField("title")
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)

			// Prefix query for autocomplete (minimum 2 chars)
			if len(lower) >= 2 {
				prefix := bleve.NewPrefixQuery(lower)
				prefix.SetField("title")
				prefix.SetBoost(0.5)
				textQueries = append(textQueries, prefix)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		lo := float64(params.MinYear)
		hi := float64(params.MaxYear)
		if params.MaxYear == 0 {
			hi = 1 << 16
		}
		inclusive := true
		yearRange := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		yearRange.SetField("year")
		queries = append(queries, yearRange)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func facetCounts(res *bleve.SearchResult, name string) []FacetCount {
	facet, ok := res.Facets[name]
	if !ok || facet.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, term := range facet.Terms.Terms() {
		out = append(out, FacetCount{Value: term.Term, Count: term.Count})
	}
	return out
}

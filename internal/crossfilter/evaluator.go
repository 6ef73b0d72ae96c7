package crossfilter

import (
	"time"
)

// RecomputeStats summarizes one selection pass.
type RecomputeStats struct {
	// Malformed counts, per attribute, books that lacked a usable value.
	Malformed map[string]int
	Duration  time.Duration
	Total     int
	Selected  int
	Filters   int
}

// MalformedTotal returns the number of (book, filter) pairs that could not be evaluated.
func (r RecomputeStats) MalformedTotal() int {
	n := 0
	for _, c := range r.Malformed {
		n += c
	}
	return n
}

// Recompute marks every book selected, then clears the flag of each book
// failing any filter. Every filter is evaluated against every book on every
// call. A book with a missing or unparsable attribute is treated as not
// matching and counted in Malformed; the pass never stops early.
func Recompute(store *Store, schema *Schema, filters []*Filter) RecomputeStats {
	start := time.Now()
	stats := RecomputeStats{
		Malformed: make(map[string]int),
		Total:     store.Len(),
		Filters:   len(filters),
	}

	for i := range store.selected {
		store.selected[i] = true
	}

	for _, f := range filters {
		dim, known := schema.Lookup(f.Attr)
		for i := range store.books {
			if !known {
				store.selected[i] = false
				stats.Malformed[f.Attr]++
				continue
			}
			matched, ok := f.Matches(&store.books[i], dim)
			if !ok {
				stats.Malformed[f.Attr]++
			}
			if !matched {
				store.selected[i] = false
			}
		}
	}

	stats.Selected = store.SelectedCount()
	stats.Duration = time.Since(start)
	return stats
}

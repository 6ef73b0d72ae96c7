package crossfilter

import (
	"sort"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/normalize"
)

// DefaultTopN is how many categories or keywords a treemap view shows.
const DefaultTopN = 15

// Count is one bucket of a string-keyed aggregate.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// YearCount is one bar of the publication histogram.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// HistogramByYear counts books per publication year.
// Years without books are absent, not zero.
func HistogramByYear(books []*domain.Book) map[int]int {
	hist := make(map[int]int)
	for _, b := range books {
		hist[b.Year]++
	}
	return hist
}

// SortedYears returns histogram bars in ascending year order.
func SortedYears(hist map[int]int) []YearCount {
	out := make([]YearCount, 0, len(hist))
	for y, c := range hist {
		out = append(out, YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// CategoryCounts splits a comma-joined attribute into tokens and counts them.
// A book contributes once per token it lists. Tokens in skip (the operands of
// filters already active on attr) are left out of the result entirely.
func CategoryCounts(books []*domain.Book, attr string, skip map[string]struct{}) map[string]int {
	counts := make(map[string]int)
	for _, b := range books {
		raw, ok := b.Text(attr)
		if !ok {
			continue
		}
		for _, tok := range normalize.Tokens(raw) {
			if _, skipped := skip[tok]; skipped {
				continue
			}
			counts[tok]++
		}
	}
	return counts
}

// KeywordFrequencies sums keyword counts across books, skipping keywords in
// skip, and returns them by descending total.
func KeywordFrequencies(books []*domain.Book, skip map[string]struct{}) []Count {
	sums := make(map[string]int)
	for _, b := range books {
		for _, k := range b.Keywords {
			kw := normalize.Token(k.Keyword)
			if kw == "" {
				continue
			}
			if _, skipped := skip[kw]; skipped {
				continue
			}
			sums[kw] += k.Count
		}
	}
	return SortCounts(sums)
}

// SortCounts orders buckets by descending count; ties sort by key in collation order.
func SortCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for k, c := range counts {
		out = append(out, Count{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return normalize.Less(out[i].Key, out[j].Key)
	})
	return out
}

// Top truncates sorted buckets to at most n entries. n <= 0 keeps everything.
func Top(counts []Count, n int) []Count {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// YearRange returns the earliest and latest publication year among books.
func YearRange(books []*domain.Book) (lo, hi int, ok bool) {
	for i, b := range books {
		if i == 0 || b.Year < lo {
			lo = b.Year
		}
		if i == 0 || b.Year > hi {
			hi = b.Year
		}
	}
	return lo, hi, len(books) > 0
}

// EventsBetween returns events whose year lies in [lo, hi], in input order.
func EventsBetween(events []domain.TimelineEvent, lo, hi int) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0)
	for _, e := range events {
		if y := e.Year(); y >= lo && y <= hi {
			out = append(out, e)
		}
	}
	return out
}

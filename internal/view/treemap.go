package view

import (
	"log/slog"
	"sync"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
)

// Treemap is the top-N buckets of one categorical dimension.
type Treemap struct {
	Attr  string              `json:"attr"`
	Items []crossfilter.Count `json:"items"`
	// Others is how many buckets fell below the top N.
	Others int `json:"others"`
}

// TreemapView aggregates a category or keyword dimension.
type TreemapView struct {
	count  func(*crossfilter.Snapshot) ([]crossfilter.Count, error)
	logger *slog.Logger
	name   string
	state  Treemap
	topN   int
	mu     sync.RWMutex
}

// NewCategoryView counts the comma-separated tokens of attr.
func NewCategoryView(name, attr string, topN int, logger *slog.Logger) *TreemapView {
	return &TreemapView{
		name:   name,
		topN:   topN,
		logger: logger,
		state:  Treemap{Attr: attr, Items: []crossfilter.Count{}},
		count: func(snap *crossfilter.Snapshot) ([]crossfilter.Count, error) {
			counts, err := snap.CategoryCounts(attr)
			if err != nil {
				return nil, err
			}
			return crossfilter.SortCounts(counts), nil
		},
	}
}

// NewKeywordView sums keyword counts.
func NewKeywordView(topN int) *TreemapView {
	return &TreemapView{
		name:  "keywords",
		topN:  topN,
		state: Treemap{Attr: domain.AttrKeywords, Items: []crossfilter.Count{}},
		count: func(snap *crossfilter.Snapshot) ([]crossfilter.Count, error) {
			return snap.KeywordFrequencies(), nil
		},
	}
}

// Name implements ViewState.
func (v *TreemapView) Name() string { return v.name }

// Stage implements ViewState.
func (v *TreemapView) Stage() crossfilter.Stage { return crossfilter.StageAggregates }

// Refresh implements crossfilter.Subscriber.
func (v *TreemapView) Refresh(snap *crossfilter.Snapshot) {
	counts, err := v.count(snap)
	if err != nil {
		if v.logger != nil {
			v.logger.Error("treemap aggregate failed",
				slog.String("view", v.name),
				slog.String("error", err.Error()))
		}
		return
	}
	top := crossfilter.Top(counts, v.topN)

	v.mu.Lock()
	v.state = Treemap{Attr: v.state.Attr, Items: top, Others: len(counts) - len(top)}
	v.mu.Unlock()
}

// State returns the current buckets.
func (v *TreemapView) State() Treemap {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

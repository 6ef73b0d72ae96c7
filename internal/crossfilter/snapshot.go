package crossfilter

import (
	"github.com/listenupapp/bookshelf/internal/domain"
)

// Snapshot is what subscribers receive on each notification. Its accessors
// read the engine's current state and are only valid during Refresh.
type Snapshot struct {
	engine *Engine

	Filters       []*Filter
	Version       uint64
	Total         int
	SelectedCount int
}

// Selected returns the selected books in load order.
func (s *Snapshot) Selected() []*domain.Book {
	return s.engine.Selected()
}

// Selection returns the selected flag of every book, indexed in load order.
func (s *Snapshot) Selection() []bool {
	return s.engine.store.Selection()
}

// HistogramByYear counts selected books per publication year.
func (s *Snapshot) HistogramByYear() map[int]int {
	return s.engine.HistogramByYear()
}

// CategoryCounts counts tokens of attr over the selection. See Engine.CategoryCounts.
func (s *Snapshot) CategoryCounts(attr string) (map[string]int, error) {
	return s.engine.CategoryCounts(attr)
}

// KeywordFrequencies sums keyword counts over the selection. See Engine.KeywordFrequencies.
func (s *Snapshot) KeywordFrequencies() []Count {
	return s.engine.KeywordFrequencies()
}

// Events returns the timeline events.
func (s *Snapshot) Events() []domain.TimelineEvent {
	return s.engine.store.Events()
}

// Label renders a filter for display.
func (s *Snapshot) Label(f *Filter) string {
	return s.engine.Label(f)
}

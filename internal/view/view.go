// Package view keeps the derived state of each dashboard panel in step with
// the crossfilter engine.
//
// Every panel is a ViewState subscribed to the engine's notifier. The filter
// list refreshes first, then the aggregate panels; renderers (the SSE
// publisher) subscribe at the render stage and read the composed Dashboard.
package view

import (
	"log/slog"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
)

// ViewState is one panel's derived state.
type ViewState interface {
	crossfilter.Subscriber
	Name() string
	Stage() crossfilter.Stage
}

// Dashboard is the composed state of every panel at one engine version.
type Dashboard struct {
	Filters   FilterList     `json:"filters"`
	Bookshelf Bookshelf      `json:"bookshelf"`
	Timeline  Timeline       `json:"timeline"`
	Planets   Treemap        `json:"planets"`
	Authors   Treemap        `json:"authors"`
	Keywords  Treemap        `json:"keywords"`
	Sentiment SentimentChart `json:"sentiment"`
	Version   uint64         `json:"version"`
}

// Set holds the dashboard's panels.
type Set struct {
	FilterList *FilterListView
	Bookshelf  *BookshelfView
	Timeline   *TimelineView
	Planets    *TreemapView
	Authors    *TreemapView
	Keywords   *TreemapView
	Sentiment  *SentimentView
	logger     *slog.Logger
}

// NewSet creates the standard panels. topN bounds each treemap; values
// below one fall back to crossfilter.DefaultTopN.
func NewSet(topN int, logger *slog.Logger) *Set {
	if topN < 1 {
		topN = crossfilter.DefaultTopN
	}
	return &Set{
		FilterList: NewFilterListView(),
		Bookshelf:  NewBookshelfView(),
		Timeline:   NewTimelineView(),
		Planets:    NewCategoryView("planets", domain.AttrPlanet, topN, logger),
		Authors:    NewCategoryView("authors", domain.AttrAuthors, topN, logger),
		Keywords:   NewKeywordView(topN),
		Sentiment:  NewSentimentView(),
		logger:     logger,
	}
}

// Views returns the panels in refresh order.
func (s *Set) Views() []ViewState {
	return []ViewState{s.FilterList, s.Bookshelf, s.Timeline, s.Planets, s.Authors, s.Keywords, s.Sentiment}
}

// Attach subscribes every panel to e and primes them with e's current
// state. The returned function detaches them again.
func (s *Set) Attach(e *crossfilter.Engine) (detach func()) {
	views := s.Views()
	unsubs := make([]func(), 0, len(views))
	snap := e.Snapshot()
	for _, v := range views {
		unsubs = append(unsubs, e.Subscribe(v.Stage(), v.Name(), v))
		v.Refresh(snap)
	}
	s.logger.Debug("views attached", slog.Int("views", len(views)))
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Dashboard composes the current state of every panel.
func (s *Set) Dashboard() Dashboard {
	filters := s.FilterList.State()
	return Dashboard{
		Version:   filters.Version,
		Filters:   filters,
		Bookshelf: s.Bookshelf.State(),
		Timeline:  s.Timeline.State(),
		Planets:   s.Planets.State(),
		Authors:   s.Authors.State(),
		Keywords:  s.Keywords.State(),
		Sentiment: s.Sentiment.State(),
	}
}

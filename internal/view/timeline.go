package view

import (
	"sync"
	"time"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
)

// TimelineEvent is a historical event drawn under the histogram.
type TimelineEvent struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Year int       `json:"year"`
}

// Timeline is the publication histogram with the events that fall inside
// the selection's year range.
type Timeline struct {
	Histogram []crossfilter.YearCount `json:"histogram"`
	Events    []TimelineEvent         `json:"events"`
	MinYear   int                     `json:"min_year,omitempty"`
	MaxYear   int                     `json:"max_year,omitempty"`
}

// TimelineView tracks books per year of the selection.
type TimelineView struct {
	mu    sync.RWMutex
	state Timeline
}

// NewTimelineView creates an empty timeline.
func NewTimelineView() *TimelineView {
	return &TimelineView{state: Timeline{Histogram: []crossfilter.YearCount{}, Events: []TimelineEvent{}}}
}

// Name implements ViewState.
func (v *TimelineView) Name() string { return "timeline" }

// Stage implements ViewState.
func (v *TimelineView) Stage() crossfilter.Stage { return crossfilter.StageAggregates }

// Refresh implements crossfilter.Subscriber.
func (v *TimelineView) Refresh(snap *crossfilter.Snapshot) {
	selected := snap.Selected()
	state := Timeline{
		Histogram: crossfilter.SortedYears(crossfilter.HistogramByYear(selected)),
		Events:    []TimelineEvent{},
	}
	if lo, hi, ok := crossfilter.YearRange(selected); ok {
		state.MinYear, state.MaxYear = lo, hi
		for _, e := range crossfilter.EventsBetween(snap.Events(), lo, hi) {
			state.Events = append(state.Events, TimelineEvent{Date: e.Date, Name: e.Name, Year: e.Year()})
		}
	}

	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
}

// State returns the current timeline.
func (v *TimelineView) State() Timeline {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

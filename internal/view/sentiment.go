package view

import (
	"sync"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
)

// SentimentPoint is one selected book on the polarity/subjectivity plane.
type SentimentPoint struct {
	GoodreadsID  string  `json:"goodreads_id"`
	Title        string  `json:"title"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// SentimentChart is the scatter of selected books and the active brush, if any.
type SentimentChart struct {
	Brush  *crossfilter.Box `json:"brush,omitempty"`
	Points []SentimentPoint `json:"points"`
	Label  string           `json:"label,omitempty"`
}

// SentimentView tracks the sentiment scatter.
type SentimentView struct {
	mu    sync.RWMutex
	state SentimentChart
}

// NewSentimentView creates an empty scatter.
func NewSentimentView() *SentimentView {
	return &SentimentView{state: SentimentChart{Points: []SentimentPoint{}}}
}

// Name implements ViewState.
func (v *SentimentView) Name() string { return "sentiment" }

// Stage implements ViewState.
func (v *SentimentView) Stage() crossfilter.Stage { return crossfilter.StageAggregates }

// Refresh implements crossfilter.Subscriber.
func (v *SentimentView) Refresh(snap *crossfilter.Snapshot) {
	selected := snap.Selected()
	state := SentimentChart{Points: make([]SentimentPoint, 0, len(selected))}
	for _, b := range selected {
		state.Points = append(state.Points, SentimentPoint{
			GoodreadsID:  b.GoodreadsID,
			Title:        b.Title,
			Polarity:     b.Sentiment.Polarity,
			Subjectivity: b.Sentiment.Subjectivity,
		})
	}
	for _, f := range snap.Filters {
		if f.Attr == domain.AttrSentiment && f.Operand.Box != nil {
			box := *f.Operand.Box
			state.Brush = &box
			state.Label = crossfilter.SentimentLabel(box.Center())
			break
		}
	}

	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
}

// State returns the current scatter.
func (v *SentimentView) State() SentimentChart {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

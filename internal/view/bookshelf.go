package view

import (
	"sync"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
)

// BookCard is a selected book as the shelf shows it.
type BookCard struct {
	GoodreadsID string `json:"goodreads_id"`
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Planet      string `json:"planet"`
	Year        int    `json:"year"`
}

// Bookshelf lists the selected books in load order.
type Bookshelf struct {
	Books    []BookCard `json:"books"`
	Selected int        `json:"selected"`
	Total    int        `json:"total"`
}

// BookshelfView tracks the selected books.
type BookshelfView struct {
	mu    sync.RWMutex
	state Bookshelf
}

// NewBookshelfView creates an empty shelf.
func NewBookshelfView() *BookshelfView {
	return &BookshelfView{state: Bookshelf{Books: []BookCard{}}}
}

// Name implements ViewState.
func (v *BookshelfView) Name() string { return "bookshelf" }

// Stage implements ViewState.
func (v *BookshelfView) Stage() crossfilter.Stage { return crossfilter.StageAggregates }

// Refresh implements crossfilter.Subscriber.
func (v *BookshelfView) Refresh(snap *crossfilter.Snapshot) {
	selected := snap.Selected()
	cards := make([]BookCard, 0, len(selected))
	for _, b := range selected {
		cards = append(cards, BookCard{
			GoodreadsID: b.GoodreadsID,
			Title:       b.Title,
			Authors:     b.Authors,
			Planet:      b.Planet,
			Year:        b.Year,
		})
	}

	v.mu.Lock()
	v.state = Bookshelf{Books: cards, Selected: len(cards), Total: snap.Total}
	v.mu.Unlock()
}

// State returns the current shelf.
func (v *BookshelfView) State() Bookshelf {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

package view

import (
	"sync"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
)

// NoFiltersMessage is shown when the filter list is empty.
const NoFiltersMessage = "No filters applied."

// FilterItem is one row of the active filter list.
type FilterItem struct {
	Operand crossfilter.Operand  `json:"operand"`
	ID      string               `json:"id"`
	Attr    string               `json:"attr"`
	Label   string               `json:"label"`
	Op      crossfilter.Operator `json:"op"`
}

// FilterList is the active filter panel.
type FilterList struct {
	Items   []FilterItem `json:"items"`
	Message string       `json:"message,omitempty"`
	Version uint64       `json:"version"`
}

// FilterListView renders the active filters in insertion order.
type FilterListView struct {
	mu    sync.RWMutex
	state FilterList
}

// NewFilterListView creates an empty filter list.
func NewFilterListView() *FilterListView {
	return &FilterListView{state: FilterList{Items: []FilterItem{}, Message: NoFiltersMessage}}
}

// Name implements ViewState.
func (v *FilterListView) Name() string { return "filters" }

// Stage implements ViewState.
func (v *FilterListView) Stage() crossfilter.Stage { return crossfilter.StageFilterList }

// Refresh implements crossfilter.Subscriber.
func (v *FilterListView) Refresh(snap *crossfilter.Snapshot) {
	items := make([]FilterItem, 0, len(snap.Filters))
	for _, f := range snap.Filters {
		items = append(items, FilterItem{
			ID:      f.ID,
			Attr:    f.Attr,
			Op:      f.Op,
			Operand: f.Operand,
			Label:   snap.Label(f),
		})
	}
	state := FilterList{Items: items, Version: snap.Version}
	if len(items) == 0 {
		state.Message = NoFiltersMessage
	}

	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
}

// State returns the last rendered list.
func (v *FilterListView) State() FilterList {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

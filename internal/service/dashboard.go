// Package service provides the request-facing operations of the bookshelf dashboard.
package service

import (
	"log/slog"
	"sync"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/search"
	"github.com/listenupapp/bookshelf/internal/view"
)

// Dashboard serializes access to one crossfilter engine and its panels.
// Every method is one atomic unit: the filter change, the rescan and the
// notification fan-out finish before the lock is released.
type Dashboard struct {
	mu     sync.Mutex
	engine *crossfilter.Engine
	views  *view.Set
	detach func()
	logger *slog.Logger
}

// NewDashboard attaches views to engine and returns the service.
func NewDashboard(engine *crossfilter.Engine, views *view.Set, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		engine: engine,
		views:  views,
		detach: views.Attach(engine),
		logger: logger,
	}
}

// Subscribe registers an additional consumer, typically the SSE publisher at
// crossfilter.StageRender.
func (d *Dashboard) Subscribe(stage crossfilter.Stage, name string, sub crossfilter.Subscriber) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	unsub := d.engine.Subscribe(stage, name, sub)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		unsub()
	}
}

// AddFilter applies a filter described by req and returns it as listed.
//
// A brush on a point dimension replaces the previous brush on the same
// attribute: the old one is revoked silently and subscribers see a single
// update for the pair. A rejected brush leaves the previous one active.
func (d *Dashboard) AddFilter(req dto.FilterRequest) (view.FilterItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f := req.Filter()
	add := d.engine.Add
	if dim, ok := d.engine.Schema().Lookup(f.Attr); ok && dim.Kind == crossfilter.KindPoint {
		add = d.engine.Replace
	}
	if err := add(f); err != nil {
		return view.FilterItem{}, err
	}

	d.logger.Info("Filter added",
		slog.String("filter_id", f.ID),
		slog.String("attr", f.Attr),
		slog.String("op", string(f.Op)),
		slog.Int("selected", d.engine.Store().SelectedCount()))
	return d.item(f), nil
}

// RemoveFilter revokes the filter with the given id.
func (d *Dashboard) RemoveFilter(filterID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.engine.RemoveByID(filterID, crossfilter.RemoveOptions{}); err != nil {
		return err
	}
	d.logger.Info("Filter removed", slog.String("filter_id", filterID))
	return nil
}

// RemoveFiltersByAttr revokes every active filter on attr with a single
// notification. It returns how many were removed; none is not an error.
func (d *Dashboard) RemoveFiltersByAttr(attr string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.engine.Schema().Lookup(attr); !ok {
		return 0, domainerrors.Validationf("unknown dimension %q", attr)
	}

	removed := 0
	for {
		ok, err := d.engine.RemoveByAttr(attr, crossfilter.RemoveOptions{SkipNotify: true})
		if err != nil {
			d.engine.Flush()
			return removed, err
		}
		if !ok {
			break
		}
		removed++
	}
	d.engine.Flush()

	if removed > 0 {
		d.logger.Info("Filters removed", slog.String("attr", attr), slog.Int("count", removed))
	}
	return removed, nil
}

// Undo revokes the most recently added filter. It returns false when no
// filter was active.
func (d *Dashboard) Undo() (view.FilterItem, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.engine.RemoveLast()
	if err != nil || f == nil {
		return view.FilterItem{}, false, err
	}
	d.logger.Info("Filter undone", slog.String("filter_id", f.ID), slog.String("attr", f.Attr))
	return d.item(f), true, nil
}

// ClearFilters revokes every filter and returns how many were active.
func (d *Dashboard) ClearFilters() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.engine.Filters())
	if err := d.engine.Clear(); err != nil {
		return 0, err
	}
	if n > 0 {
		d.logger.Info("Filters cleared", slog.Int("count", n))
	}
	return n, nil
}

// Filters returns the active filters in insertion order.
func (d *Dashboard) Filters() []view.FilterItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	filters := d.engine.Filters()
	items := make([]view.FilterItem, 0, len(filters))
	for _, f := range filters {
		items = append(items, d.item(f))
	}
	return items
}

// Books returns either the selected books or the whole dataset, in load order.
func (d *Dashboard) Books(selectedOnly bool) []*domain.Book {
	d.mu.Lock()
	defer d.mu.Unlock()

	if selectedOnly {
		return d.engine.Selected()
	}
	store := d.engine.Store()
	books := make([]*domain.Book, store.Len())
	for i := range books {
		books[i] = store.Book(i)
	}
	return books
}

// MarkSelected sets Selected on each search hit from the current selection.
func (d *Dashboard) MarkSelected(hits []search.Hit) {
	d.mu.Lock()
	defer d.mu.Unlock()

	store := d.engine.Store()
	for i := range hits {
		hits[i].Selected, _ = store.IsSelectedID(hits[i].GoodreadsID)
	}
}

// YearHistogram returns the selection's publication histogram in year order.
func (d *Dashboard) YearHistogram() []crossfilter.YearCount {
	d.mu.Lock()
	defer d.mu.Unlock()

	return crossfilter.SortedYears(d.engine.HistogramByYear())
}

// Categories returns token counts of attr over the selection, largest first,
// truncated to limit. total is the number of distinct tokens before truncation.
func (d *Dashboard) Categories(attr string, limit int) (counts []crossfilter.Count, total int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	raw, err := d.engine.CategoryCounts(attr)
	if err != nil {
		return nil, 0, err
	}
	sorted := crossfilter.SortCounts(raw)
	return crossfilter.Top(sorted, limit), len(sorted), nil
}

// Keywords returns keyword totals over the selection, largest first,
// truncated to limit.
func (d *Dashboard) Keywords(limit int) (counts []crossfilter.Count, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sorted := d.engine.KeywordFrequencies()
	return crossfilter.Top(sorted, limit), len(sorted)
}

// Events returns the timeline events within the selection's year range.
func (d *Dashboard) Events() []domain.TimelineEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	lo, hi, ok := crossfilter.YearRange(d.engine.Selected())
	if !ok {
		return []domain.TimelineEvent{}
	}
	return crossfilter.EventsBetween(d.engine.Store().Events(), lo, hi)
}

// Current composes the state of every panel. It implements sse.DashboardSource.
func (d *Dashboard) Current() view.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.views.Dashboard()
}

// Version returns the engine's notification counter.
func (d *Dashboard) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.engine.Version()
}

// Close detaches the panels and closes the engine. Later mutations fail
// with crossfilter.ErrClosed.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.detach()
	d.engine.Close()
	d.logger.Info("Dashboard closed")
	return nil
}

func (d *Dashboard) item(f *crossfilter.Filter) view.FilterItem {
	return view.FilterItem{
		ID:      f.ID,
		Attr:    f.Attr,
		Op:      f.Op,
		Operand: f.Operand,
		Label:   d.engine.Label(f),
	}
}

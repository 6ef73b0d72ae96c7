// Package crossfilter implements the coordinated-views selection engine.
//
// An Engine owns the record store, the ordered filter set and the change
// notifier. Every mutation runs to completion, including the selection
// rescan and the notification fan-out, before it returns. The engine is not
// safe for concurrent use; callers that share one across goroutines must
// serialize access (see service.Dashboard).
package crossfilter

import (
	"io"
	"log/slog"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/id"
)

// ErrClosed is returned by mutations on a closed engine.
var ErrClosed = domainerrors.Conflict("engine closed")

// RemoveOptions tunes a removal.
type RemoveOptions struct {
	// SkipCallback suppresses the filter's OnRemove.
	SkipCallback bool
	// SkipNotify leaves subscribers stale until Flush or the next notifying mutation.
	SkipNotify bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSchema replaces the default dimension schema.
func WithSchema(s *Schema) Option {
	return func(e *Engine) {
		if s != nil {
			e.schema = s
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// Engine coordinates filters, selection and aggregates for one dashboard.
type Engine struct {
	store    *Store
	schema   *Schema
	logger   *slog.Logger
	recorder Recorder
	notifier *Notifier
	set      FilterSet
	version  uint64
	// callbackDepth is non-zero while an OnRemove runs. Mutations made from
	// the callback fold their notification into the enclosing one.
	callbackDepth int
	stale         bool
	closed        bool
}

// New creates an engine over store with no active filters.
func New(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		schema:   DefaultSchema(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.notifier = NewNotifier(e.logger)
	Recompute(e.store, e.schema, nil)
	return e
}

// Close drops all subscribers and filters. OnRemove callbacks are not run.
// Further mutations return ErrClosed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.notifier.reset()
	e.set = FilterSet{}
	Recompute(e.store, e.schema, nil)
	e.logger.Debug("crossfilter engine closed")
}

// Subscribe registers a downstream consumer. See Notifier.Subscribe.
func (e *Engine) Subscribe(stage Stage, name string, sub Subscriber) (unsubscribe func()) {
	return e.notifier.Subscribe(stage, name, sub)
}

// Add inserts f, recomputes the selection and notifies subscribers once.
//
// A filter structurally identical to an active one is rejected with
// ErrDuplicateFilter and nothing changes. On an exclusive dimension an
// active filter with a different value is replaced without its OnRemove.
// Invalid descriptors are rejected with a validation error.
// An empty f.ID is filled with a generated id.
func (e *Engine) Add(f *Filter) error {
	return e.add(f, false)
}

// Replace is Add with the dimension treated as exclusive: the first active
// filter on f.Attr is swapped for f without its OnRemove, and subscribers are
// notified once. f is validated before anything changes, so a rejected or
// duplicate filter leaves the set and the selection as they were.
func (e *Engine) Replace(f *Filter) error {
	return e.add(f, true)
}

func (e *Engine) add(f *Filter, replace bool) error {
	if e.closed {
		return ErrClosed
	}
	dim, err := f.validate(e.schema)
	if err != nil {
		attr := ""
		if f != nil {
			attr = f.Attr
		}
		e.recorder.FilterChanged(attr, ActionRejected)
		e.logger.Warn("Rejected filter", slog.String("attr", attr), slog.String("error", err.Error()))
		return err
	}
	if f.ID == "" {
		fid, err := id.Generate(id.PrefixFilter)
		if err != nil {
			return domainerrors.Internal("generate filter id").WithCause(err)
		}
		f.ID = fid
	}

	dup, replaced := e.set.insert(f, replace || dim.Exclusive)
	if dup != nil {
		e.recorder.FilterChanged(f.Attr, ActionDuplicate)
		e.logger.Info("Filter already in list",
			slog.String("attr", f.Attr),
			slog.String("existing_id", dup.ID))
		return domainerrors.DuplicateFilterf("filter on %q with the same value is already active", f.Attr)
	}
	if replaced != nil {
		e.recorder.FilterChanged(replaced.Attr, ActionReplaced)
		e.logger.Debug("Replaced filter",
			slog.String("attr", f.Attr),
			slog.String("old_id", replaced.ID),
			slog.String("new_id", f.ID))
	}
	e.recorder.FilterChanged(f.Attr, ActionAdded)

	e.recompute()
	e.notify()
	return nil
}

// Remove revokes f (matched by identity). Unless SkipCallback is set, f's
// OnRemove runs after f leaves the set and before the selection is recomputed.
// Removing a filter that is not active returns ErrFilterNotFound and changes nothing.
func (e *Engine) Remove(f *Filter, opts RemoveOptions) error {
	if e.closed {
		return ErrClosed
	}
	if f == nil || !e.set.remove(f) {
		attr := ""
		if f != nil {
			attr = f.Attr
		}
		e.recorder.FilterChanged(attr, ActionUnknown)
		e.logger.Info("Filter not in list", slog.String("attr", attr))
		return domainerrors.FilterNotFoundf("filter on %q is not active", attr)
	}
	e.recorder.FilterChanged(f.Attr, ActionRemoved)

	if !opts.SkipCallback {
		e.runOnRemove(f)
	}
	e.recompute()
	if opts.SkipNotify {
		e.stale = true
		return nil
	}
	e.notify()
	return nil
}

// RemoveByID revokes the filter with the given id.
func (e *Engine) RemoveByID(filterID string, opts RemoveOptions) error {
	f, ok := e.set.ByID(filterID)
	if !ok {
		e.recorder.FilterChanged("", ActionUnknown)
		e.logger.Info("Filter not in list", slog.String("filter_id", filterID))
		return domainerrors.FilterNotFoundf("filter %q is not active", filterID)
	}
	return e.Remove(f, opts)
}

// RemoveByAttr revokes the first active filter on attr. It reports whether
// one was found; no match is a silent no-op.
func (e *Engine) RemoveByAttr(attr string, opts RemoveOptions) (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	f, ok := e.set.FirstByAttr(attr)
	if !ok {
		return false, nil
	}
	return true, e.Remove(f, opts)
}

// RemoveLast revokes the most recently added filter, running its OnRemove.
// It returns nil when no filter is active.
func (e *Engine) RemoveLast() (*Filter, error) {
	if e.closed {
		return nil, ErrClosed
	}
	f, ok := e.set.Last()
	if !ok {
		return nil, nil
	}
	return f, e.Remove(f, RemoveOptions{})
}

// Clear revokes every filter, running callbacks in insertion order, and
// notifies once. Clearing an empty set does nothing.
func (e *Engine) Clear() error {
	if e.closed {
		return ErrClosed
	}
	if e.set.Len() == 0 {
		return nil
	}
	for _, f := range e.set.All() {
		e.set.remove(f)
		e.recorder.FilterChanged(f.Attr, ActionRemoved)
		e.runOnRemove(f)
	}
	e.recompute()
	e.notify()
	return nil
}

// Flush notifies subscribers if a SkipNotify removal left them stale.
// It reports whether a notification was sent.
func (e *Engine) Flush() bool {
	if e.closed || !e.stale {
		return false
	}
	e.notify()
	return true
}

// Stale reports whether subscribers have not yet seen the latest selection.
func (e *Engine) Stale() bool {
	return e.stale
}

// Version increments once per notification.
func (e *Engine) Version() uint64 {
	return e.version
}

// Filters returns the active filters in insertion order.
func (e *Engine) Filters() []*Filter {
	return e.set.All()
}

// Filter returns the active filter with the given id.
func (e *Engine) Filter(filterID string) (*Filter, bool) {
	return e.set.ByID(filterID)
}

// Schema returns the dimension schema.
func (e *Engine) Schema() *Schema {
	return e.schema
}

// Store returns the record store.
func (e *Engine) Store() *Store {
	return e.store
}

// Selected returns the selected books in load order.
func (e *Engine) Selected() []*domain.Book {
	return e.store.Selected()
}

// HistogramByYear counts selected books per publication year.
func (e *Engine) HistogramByYear() map[int]int {
	return HistogramByYear(e.store.Selected())
}

// CategoryCounts counts comma-separated tokens of attr over the selection,
// leaving out tokens under a filter on attr.
func (e *Engine) CategoryCounts(attr string) (map[string]int, error) {
	dim, ok := e.schema.Lookup(attr)
	if !ok {
		return nil, domainerrors.Validationf("unknown dimension %q", attr)
	}
	if dim.Kind != KindList && dim.Kind != KindText {
		return nil, domainerrors.Validationf("dimension %q of kind %s has no category tokens", attr, dim.Kind)
	}
	return CategoryCounts(e.store.Selected(), attr, e.set.OperandTokens(attr)), nil
}

// KeywordFrequencies sums keyword counts over the selection, leaving out
// keywords under a keyword filter, by descending total.
func (e *Engine) KeywordFrequencies() []Count {
	return KeywordFrequencies(e.store.Selected(), e.set.OperandTokens(domain.AttrKeywords))
}

// Label renders f for the filter list.
func (e *Engine) Label(f *Filter) string {
	return Label(e.schema, f)
}

func (e *Engine) runOnRemove(f *Filter) {
	if f.OnRemove == nil {
		return
	}
	e.callbackDepth++
	defer func() {
		e.callbackDepth--
		if r := recover(); r != nil {
			e.logger.Error("OnRemove callback panicked",
				slog.String("filter_id", f.ID),
				slog.String("attr", f.Attr),
				slog.Any("panic", r))
		}
	}()
	f.OnRemove()
}

func (e *Engine) recompute() {
	stats := Recompute(e.store, e.schema, e.set.filters)
	e.recorder.Recomputed(stats)
	if stats.MalformedTotal() > 0 {
		attrs := make([]any, 0, len(stats.Malformed))
		for attr, n := range stats.Malformed {
			attrs = append(attrs, slog.Int(attr, n))
		}
		e.logger.Warn("Books lacking filtered attribute were excluded",
			slog.Int("malformed", stats.MalformedTotal()),
			slog.Group("by_attr", attrs...))
	}
	e.logger.Debug("Selection recomputed",
		slog.Int("filters", stats.Filters),
		slog.Int("selected", stats.Selected),
		slog.Int("total", stats.Total),
		slog.Duration("took", stats.Duration))
}

// Snapshot describes the current state without notifying anyone. Views use
// it to initialize before the first change.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Version:       e.version,
		Filters:       e.set.All(),
		Total:         e.store.Len(),
		SelectedCount: e.store.SelectedCount(),
		engine:        e,
	}
}

func (e *Engine) notify() {
	if e.callbackDepth > 0 {
		e.stale = true
		return
	}
	e.version++
	e.stale = false
	n := e.notifier.NotifyAll(e.Snapshot())
	e.recorder.Notified(n)
}

package crossfilter

import (
	"fmt"
	"log/slog"
	"sort"
)

// Stage orders notification fan-out. All subscribers of an earlier stage run
// before any subscriber of a later one.
type Stage int

const (
	// StageFilterList refreshes the active filter display.
	StageFilterList Stage = iota
	// StageAggregates recomputes per-view aggregates.
	StageAggregates
	// StageRender pushes the result to renderers.
	StageRender
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageFilterList:
		return "filter-list"
	case StageAggregates:
		return "aggregates"
	case StageRender:
		return "render"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Subscriber receives a snapshot after every selection-affecting change.
type Subscriber interface {
	Refresh(snap *Snapshot)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(snap *Snapshot)

// Refresh implements Subscriber.
func (fn SubscriberFunc) Refresh(snap *Snapshot) {
	fn(snap)
}

type subscription struct {
	sub   Subscriber
	name  string
	seq   uint64
	stage Stage
}

// Notifier is the single coordination point for downstream consumers.
type Notifier struct {
	logger *slog.Logger
	subs   []subscription
	seq    uint64
}

// NewNotifier creates an empty notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers sub at the given stage and returns a function that
// removes it again. Within a stage, subscribers run in registration order.
func (n *Notifier) Subscribe(stage Stage, name string, sub Subscriber) (unsubscribe func()) {
	n.seq++
	seq := n.seq
	n.subs = append(n.subs, subscription{sub: sub, name: name, seq: seq, stage: stage})
	sort.SliceStable(n.subs, func(i, j int) bool {
		if n.subs[i].stage != n.subs[j].stage {
			return n.subs[i].stage < n.subs[j].stage
		}
		return n.subs[i].seq < n.subs[j].seq
	})
	return func() { n.unsubscribe(seq) }
}

func (n *Notifier) unsubscribe(seq uint64) {
	for i, s := range n.subs {
		if s.seq == seq {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	return len(n.subs)
}

// NotifyAll dispatches snap to every subscriber in stage order and returns
// how many were called. A panicking subscriber is logged and skipped so the
// rest still see the update.
func (n *Notifier) NotifyAll(snap *Snapshot) int {
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)

	for _, s := range subs {
		n.dispatch(s, snap)
	}
	return len(subs)
}

func (n *Notifier) dispatch(s subscription, snap *Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("subscriber panicked",
				slog.String("subscriber", s.name),
				slog.String("stage", s.stage.String()),
				slog.Any("panic", r))
		}
	}()
	s.sub.Refresh(snap)
}

func (n *Notifier) reset() {
	n.subs = nil
}

package crossfilter

// Action names a filter set change for diagnostics.
type Action string

// Filter set actions.
const (
	ActionAdded     Action = "added"
	ActionReplaced  Action = "replaced"
	ActionRemoved   Action = "removed"
	ActionDuplicate Action = "duplicate"
	ActionUnknown   Action = "unknown"
	ActionRejected  Action = "rejected"
)

// Recorder observes engine activity. The metrics package provides a Prometheus implementation.
type Recorder interface {
	FilterChanged(attr string, action Action)
	Recomputed(stats RecomputeStats)
	Notified(subscribers int)
}

type nopRecorder struct{}

func (nopRecorder) FilterChanged(string, Action) {}
func (nopRecorder) Recomputed(RecomputeStats)    {}
func (nopRecorder) Notified(int)                 {}

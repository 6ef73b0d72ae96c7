package sse

import (
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/view"
)

// Publisher forwards the composed dashboard to every stream after each
// change. Subscribe it at crossfilter.StageRender so the panels it reads
// have already refreshed.
type Publisher struct {
	manager *Manager
	views   *view.Set
}

// NewPublisher creates a render-stage subscriber.
func NewPublisher(manager *Manager, views *view.Set) *Publisher {
	return &Publisher{manager: manager, views: views}
}

// Refresh implements crossfilter.Subscriber.
func (p *Publisher) Refresh(*crossfilter.Snapshot) {
	p.manager.Emit(NewDashboardUpdatedEvent(p.views.Dashboard()))
}

package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/view"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(discardLogger(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e, ok := <-c.EventChan:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_ConnectAndDisconnect(t *testing.T) {
	m := NewManager(discardLogger(), 0)

	c, err := m.Connect("127.0.0.1:5000")
	require.NoError(t, err)
	assert.Regexp(t, `^sse-`, c.ID)
	assert.Equal(t, 1, m.ClientCount())
	assert.Equal(t, "127.0.0.1:5000", c.RemoteAddr)

	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, ok := <-c.Done
	assert.False(t, ok)
}

func TestManager_Broadcast(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect("a")
	require.NoError(t, err)
	b, err := m.Connect("b")
	require.NoError(t, err)

	m.Emit(NewDashboardUpdatedEvent(view.Dashboard{Version: 7}))

	for _, c := range []*Client{a, b} {
		e := receive(t, c)
		assert.Equal(t, EventDashboardUpdated, e.Type)
		assert.Equal(t, uint64(7), e.Data.(view.Dashboard).Version)
	}
}

func TestManager_SlowClientDropsEvents(t *testing.T) {
	m := NewManager(discardLogger(), time.Hour)
	c, err := m.Connect("slow")
	require.NoError(t, err)

	for i := 0; i < clientBuffer+5; i++ {
		m.broadcast(NewHeartbeatEvent(1))
	}

	assert.Len(t, c.EventChan, clientBuffer)
}

func TestManager_Shutdown(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect("a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, 0, m.ClientCount())
	select {
	case <-c.Done:
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}

	assert.NotPanics(t, func() { m.Emit(NewHeartbeatEvent(0)) })
}

func TestPublisher_EmitsOnRender(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect("a")
	require.NoError(t, err)

	e := crossfilter.New(crossfilter.NewStore([]domain.Book{
		{GoodreadsID: "1", Title: "Dune", Year: 1965},
		{GoodreadsID: "2", Title: "Solaris", Year: 1961},
	}, nil), crossfilter.WithLogger(discardLogger()))
	defer e.Close()
	views := view.NewSet(15, discardLogger())
	views.Attach(e)
	e.Subscribe(crossfilter.StageRender, "sse", NewPublisher(m, views))

	require.NoError(t, e.Add(crossfilter.EqualsNumber(domain.AttrYear, 1961)))

	got := receive(t, c)
	require.Equal(t, EventDashboardUpdated, got.Type)
	d := got.Data.(view.Dashboard)
	assert.Equal(t, uint64(1), d.Version)
	assert.Equal(t, 1, d.Bookshelf.Selected)
}

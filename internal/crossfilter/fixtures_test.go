package crossfilter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
)

func testBooks() []domain.Book {
	return []domain.Book{
		{
			GoodreadsID: "234225",
			Title:       "Dune",
			Authors:     "Frank Herbert",
			Year:        1965,
			Planet:      "Arrakis, Caladan",
			Keywords:    []domain.KeywordCount{{Keyword: "spice", Count: 5}, {Keyword: "desert", Count: 3}},
			Sentiment:   domain.Sentiment{Polarity: 0.1, Subjectivity: 0.4},
			Extra:       map[string]string{"Pages": "412"},
		},
		{
			GoodreadsID: "95558",
			Title:       "Solaris",
			Authors:     "Stanisław Lem",
			Year:        1961,
			Planet:      "Solaris",
			Keywords:    []domain.KeywordCount{{Keyword: "ocean", Count: 4}, {Keyword: "spice", Count: 1}},
			Sentiment:   domain.Sentiment{Polarity: -0.2, Subjectivity: 0.6},
		},
		{
			GoodreadsID: "29579",
			Title:       "Foundation",
			Authors:     "Isaac Asimov",
			Year:        1951,
			Planet:      "Trantor, Terminus",
			Keywords:    []domain.KeywordCount{{Keyword: "empire", Count: 6}},
			Sentiment:   domain.Sentiment{Polarity: 0.3, Subjectivity: 0.5},
			Extra:       map[string]string{"Pages": "255"},
		},
		{
			GoodreadsID: "18423",
			Title:       "The Left Hand of Darkness",
			Authors:     "Ursula K. Le Guin, Ursula Le Guin",
			Year:        1969,
			Planet:      "Gethen",
			Keywords:    []domain.KeywordCount{{Keyword: "desert", Count: 2}},
			Sentiment:   domain.Sentiment{Polarity: -0.1, Subjectivity: 0.2},
			Extra:       map[string]string{"Pages": "n/a"},
		},
	}
}

func testEvents() []domain.TimelineEvent {
	return []domain.TimelineEvent{
		{Name: "Sputnik 1", Date: mustDate("1957-10-04")},
		{Name: "Apollo 11", Date: mustDate("1969-07-20")},
		{Name: "Voyager 1", Date: mustDate("1977-09-05")},
	}
}

func mustDate(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	e := New(NewStore(testBooks(), testEvents()), opts...)
	t.Cleanup(e.Close)
	return e
}

func selectedTitles(e *Engine) []string {
	var titles []string
	for _, b := range e.Selected() {
		titles = append(titles, b.Title)
	}
	return titles
}

// countingSubscriber records every snapshot version it sees.
type countingSubscriber struct {
	versions []uint64
}

func (c *countingSubscriber) Refresh(snap *Snapshot) {
	c.versions = append(c.versions, snap.Version)
}

type fakeRecorder struct {
	actions  []Action
	stats    []RecomputeStats
	notified []int
}

func (r *fakeRecorder) FilterChanged(_ string, action Action) { r.actions = append(r.actions, action) }
func (r *fakeRecorder) Recomputed(stats RecomputeStats)       { r.stats = append(r.stats, stats) }
func (r *fakeRecorder) Notified(n int)                        { r.notified = append(r.notified, n) }

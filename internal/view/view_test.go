package view

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/domain"
)

func setupViews(t *testing.T, topN int) (*crossfilter.Engine, *Set) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	books := []domain.Book{
		{GoodreadsID: "1", Title: "Dune", Authors: "Frank Herbert", Year: 1965, Planet: "Arrakis, Caladan",
			Keywords:  []domain.KeywordCount{{Keyword: "spice", Count: 5}, {Keyword: "desert", Count: 3}},
			Sentiment: domain.Sentiment{Polarity: 0.1, Subjectivity: 0.4}},
		{GoodreadsID: "2", Title: "Solaris", Authors: "Stanisław Lem", Year: 1961, Planet: "Solaris",
			Keywords:  []domain.KeywordCount{{Keyword: "ocean", Count: 4}},
			Sentiment: domain.Sentiment{Polarity: -0.2, Subjectivity: 0.6}},
		{GoodreadsID: "3", Title: "Foundation", Authors: "Isaac Asimov", Year: 1951, Planet: "Trantor, Terminus",
			Keywords:  []domain.KeywordCount{{Keyword: "empire", Count: 6}},
			Sentiment: domain.Sentiment{Polarity: 0.3, Subjectivity: 0.5}},
	}
	events := []domain.TimelineEvent{
		{Name: "Sputnik 1", Date: time.Date(1957, time.October, 4, 0, 0, 0, 0, time.UTC)},
		{Name: "Apollo 11", Date: time.Date(1969, time.July, 20, 0, 0, 0, 0, time.UTC)},
	}

	e := crossfilter.New(crossfilter.NewStore(books, events), crossfilter.WithLogger(logger))
	t.Cleanup(e.Close)
	views := NewSet(topN, logger)
	t.Cleanup(views.Attach(e))
	return e, views
}

func TestSet_AttachPrimesViews(t *testing.T) {
	_, views := setupViews(t, 15)

	d := views.Dashboard()
	assert.Equal(t, uint64(0), d.Version)
	assert.Empty(t, d.Filters.Items)
	assert.Equal(t, NoFiltersMessage, d.Filters.Message)
	assert.Equal(t, 3, d.Bookshelf.Selected)
	assert.Equal(t, 3, d.Bookshelf.Total)
	assert.Equal(t, 1951, d.Timeline.MinYear)
	assert.Equal(t, 1965, d.Timeline.MaxYear)
	require.Len(t, d.Timeline.Events, 1)
	assert.Equal(t, "Sputnik 1", d.Timeline.Events[0].Name)
	assert.Len(t, d.Planets.Items, 5)
	assert.Len(t, d.Sentiment.Points, 3)
	assert.Nil(t, d.Sentiment.Brush)
}

func TestSet_RefreshesOnChange(t *testing.T) {
	e, views := setupViews(t, 15)

	require.NoError(t, e.Add(crossfilter.InRange(domain.AttrYear, 1960, 1970)))

	d := views.Dashboard()
	assert.Equal(t, uint64(1), d.Version)
	require.Len(t, d.Filters.Items, 1)
	assert.Equal(t, "Year of Publication: 1960 to 1970", d.Filters.Items[0].Label)
	assert.Empty(t, d.Filters.Message)

	var titles []string
	for _, b := range d.Bookshelf.Books {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"Dune", "Solaris"}, titles)
	assert.Equal(t, []crossfilter.YearCount{{Year: 1961, Count: 1}, {Year: 1965, Count: 1}}, d.Timeline.Histogram)
	assert.Empty(t, d.Timeline.Events, "Sputnik falls outside 1961..1965")
}

func TestTreemap_SelfExclusionAndTopN(t *testing.T) {
	e, views := setupViews(t, 2)

	keywords := views.Keywords.State()
	assert.Equal(t, []crossfilter.Count{{Key: "empire", Count: 6}, {Key: "spice", Count: 5}}, keywords.Items)
	assert.Equal(t, 2, keywords.Others)

	require.NoError(t, e.Add(crossfilter.Contains(domain.AttrKeywords, "spice")))
	keywords = views.Keywords.State()
	assert.Equal(t, []crossfilter.Count{{Key: "desert", Count: 3}}, keywords.Items)
	assert.Equal(t, 0, keywords.Others)

	planets := views.Planets.State()
	assert.Equal(t, domain.AttrPlanet, planets.Attr)
	assert.Equal(t, []crossfilter.Count{{Key: "Arrakis", Count: 1}, {Key: "Caladan", Count: 1}}, planets.Items)
}

func TestSentimentView_Brush(t *testing.T) {
	e, views := setupViews(t, 15)

	require.NoError(t, e.Add(crossfilter.Within(domain.AttrSentiment,
		crossfilter.Point{X: 0.5, Y: 1}, crossfilter.Point{X: 0, Y: 0})))

	s := views.Sentiment.State()
	require.NotNil(t, s.Brush)
	assert.Equal(t, crossfilter.Point{X: 0.5, Y: 1}, s.Brush.Max)
	assert.Equal(t, "positive, neutral", s.Label)
	assert.Len(t, s.Points, 2)
}

func TestSet_Detach(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := crossfilter.New(crossfilter.NewStore([]domain.Book{{GoodreadsID: "1", Year: 1950}}, nil),
		crossfilter.WithLogger(logger))
	defer e.Close()

	views := NewSet(0, logger)
	detach := views.Attach(e)
	detach()

	require.NoError(t, e.Add(crossfilter.EqualsNumber(domain.AttrYear, 1951)))
	assert.Equal(t, 1, views.Bookshelf.State().Selected, "detached views keep their last state")
}

func TestSet_ViewOrder(t *testing.T) {
	views := NewSet(15, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var names []string
	for _, v := range views.Views() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"filters", "bookshelf", "timeline", "planets", "authors", "keywords", "sentiment"}, names)
	assert.Equal(t, crossfilter.StageFilterList, views.FilterList.Stage())
	assert.Equal(t, crossfilter.StageAggregates, views.Keywords.Stage())
}

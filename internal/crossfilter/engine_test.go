package crossfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

func TestEngine_New_SelectsEverything(t *testing.T) {
	e := setupEngine(t)

	assert.Len(t, e.Selected(), 4)
	assert.Empty(t, e.Filters())
	assert.Equal(t, uint64(0), e.Version())
}

func TestEngine_Add_AssignsID(t *testing.T) {
	e := setupEngine(t)

	f := Contains(domain.AttrPlanet, "Arrakis")
	require.NoError(t, e.Add(f))

	assert.Regexp(t, `^flt-`, f.ID)
	got, ok := e.Filter(f.ID)
	require.True(t, ok)
	assert.Same(t, f, got)
}

func TestEngine_Add_DuplicateIsIdempotent(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	require.NoError(t, e.Add(Contains(domain.AttrPlanet, "Arrakis")))
	before := e.Store().Selection()

	err := e.Add(Contains(domain.AttrPlanet, " Arrakis "))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateFilter)

	assert.Len(t, e.Filters(), 1)
	assert.Equal(t, before, e.Store().Selection())
	assert.Equal(t, []uint64{1}, sub.versions, "duplicate must not notify")
}

func TestEngine_Add_SameInstanceTwice(t *testing.T) {
	e := setupEngine(t)

	f := Contains(domain.AttrKeywords, "spice")
	require.NoError(t, e.Add(f))
	assert.ErrorIs(t, e.Add(f), domainerrors.ErrDuplicateFilter)
	assert.Len(t, e.Filters(), 1)
}

func TestEngine_Add_YearIsExclusive(t *testing.T) {
	e := setupEngine(t)

	removed := 0
	first := EqualsNumber(domain.AttrYear, 1965).WithOnRemove(func() { removed++ })
	require.NoError(t, e.Add(first))
	assert.Equal(t, []string{"Dune"}, selectedTitles(e))

	require.NoError(t, e.Add(EqualsNumber(domain.AttrYear, 1961)))

	filters := e.Filters()
	require.Len(t, filters, 1)
	assert.Equal(t, 1961.0, *filters[0].Operand.Number)
	assert.Equal(t, 0, removed, "replacement must not fire OnRemove")
	assert.Equal(t, []string{"Solaris"}, selectedTitles(e))

	// A range on the same dimension also replaces the single year.
	require.NoError(t, e.Add(InRange(domain.AttrYear, 1960, 1970)))
	filters = e.Filters()
	require.Len(t, filters, 1)
	assert.Equal(t, OpRange, filters[0].Op)
	assert.Equal(t, []string{"Dune", "Solaris", "The Left Hand of Darkness"}, selectedTitles(e))
}

func TestEngine_NonExclusiveDimensionsAccumulate(t *testing.T) {
	e := setupEngine(t)

	require.NoError(t, e.Add(Contains(domain.AttrKeywords, "spice")))
	require.NoError(t, e.Add(Contains(domain.AttrKeywords, "desert")))

	assert.Len(t, e.Filters(), 2)
	assert.Equal(t, []string{"Dune"}, selectedTitles(e))
}

func TestEngine_AndSemanticsAndRestore(t *testing.T) {
	e := setupEngine(t)

	year := InRange(domain.AttrYear, 1960, 1970)
	planet := Contains(domain.AttrPlanet, "Solaris")
	require.NoError(t, e.Add(year))
	require.NoError(t, e.Add(planet))

	for _, b := range e.Selected() {
		assert.GreaterOrEqual(t, b.Year, 1960)
		assert.LessOrEqual(t, b.Year, 1970)
		assert.Contains(t, b.PlanetList(), "Solaris")
	}
	assert.Equal(t, []string{"Solaris"}, selectedTitles(e))

	require.NoError(t, e.Remove(year, RemoveOptions{}))
	require.NoError(t, e.Remove(planet, RemoveOptions{}))
	assert.Len(t, e.Selected(), 4)
}

func TestEngine_RemoveRestoresPriorState(t *testing.T) {
	e := setupEngine(t)
	require.NoError(t, e.Add(Contains(domain.AttrKeywords, "desert")))

	selection := e.Store().Selection()
	hist := e.HistogramByYear()
	keywords := e.KeywordFrequencies()

	f := EqualsNumber(domain.AttrYear, 1969)
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{}))

	assert.Equal(t, selection, e.Store().Selection())
	assert.Equal(t, hist, e.HistogramByYear())
	assert.Equal(t, keywords, e.KeywordFrequencies())
}

func TestEngine_Remove_Unknown(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	err := e.Remove(Contains(domain.AttrPlanet, "Mars"), RemoveOptions{})
	assert.ErrorIs(t, err, domainerrors.ErrFilterNotFound)

	// Structurally equal but a different instance is still unknown.
	require.NoError(t, e.Add(Contains(domain.AttrPlanet, "Gethen")))
	err = e.Remove(Contains(domain.AttrPlanet, "Gethen"), RemoveOptions{})
	assert.ErrorIs(t, err, domainerrors.ErrFilterNotFound)
	assert.Len(t, e.Filters(), 1)
	assert.Equal(t, []uint64{1}, sub.versions)

	assert.ErrorIs(t, e.RemoveByID("flt-missing", RemoveOptions{}), domainerrors.ErrFilterNotFound)
}

func TestEngine_Remove_OnRemoveFiresOnceBeforeNotification(t *testing.T) {
	e := setupEngine(t)

	var trace []string
	e.Subscribe(StageRender, "trace", SubscriberFunc(func(*Snapshot) {
		trace = append(trace, "notify")
	}))

	f := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() {
		trace = append(trace, "callback")
	})
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{}))

	assert.Equal(t, []string{"notify", "callback", "notify"}, trace)
}

func TestEngine_Remove_OnRemoveSeesSetWithoutFilter(t *testing.T) {
	e := setupEngine(t)

	var during int
	f := Contains(domain.AttrPlanet, "Arrakis")
	f.OnRemove = func() { during = len(e.Filters()) }
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{}))

	assert.Equal(t, 0, during)
}

func TestEngine_Remove_SkipCallback(t *testing.T) {
	e := setupEngine(t)

	called := false
	f := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() { called = true })
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{SkipCallback: true}))

	assert.False(t, called)
	assert.Len(t, e.Selected(), 4)
}

func TestEngine_Remove_PanickingCallbackIsContained(t *testing.T) {
	e := setupEngine(t)

	f := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() { panic("boom") })
	require.NoError(t, e.Add(f))

	assert.NotPanics(t, func() {
		require.NoError(t, e.Remove(f, RemoveOptions{}))
	})
	assert.Len(t, e.Selected(), 4)
}

func TestEngine_SkipNotifyAndFlush(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	f := Contains(domain.AttrPlanet, "Arrakis")
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{SkipNotify: true}))

	assert.True(t, e.Stale())
	assert.Len(t, e.Selected(), 4, "selection is recomputed even when notification is skipped")
	assert.Equal(t, []uint64{1}, sub.versions)

	assert.True(t, e.Flush())
	assert.False(t, e.Stale())
	assert.Equal(t, []uint64{1, 2}, sub.versions)

	assert.False(t, e.Flush(), "nothing pending")
}

func TestEngine_SentimentReplacementNotifiesOnce(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	callbacks := 0
	first := Within(domain.AttrSentiment, Point{X: 0.5, Y: 1}, Point{X: 0, Y: 0}).
		WithOnRemove(func() { callbacks++ })
	require.NoError(t, e.Add(first))

	found, err := e.RemoveByAttr(domain.AttrSentiment, RemoveOptions{SkipCallback: true, SkipNotify: true})
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, e.Add(Within(domain.AttrSentiment, Point{X: 0, Y: 1}, Point{X: -0.5, Y: 0})))

	assert.Equal(t, []uint64{1, 2}, sub.versions)
	assert.Equal(t, 0, callbacks)
	assert.False(t, e.Stale())
	assert.Equal(t, []string{"Solaris", "The Left Hand of Darkness"}, selectedTitles(e))
}

func TestEngine_Replace(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	callbacks := 0
	first := Within(domain.AttrSentiment, Point{X: 0.5, Y: 1}, Point{X: 0, Y: 0}).
		WithOnRemove(func() { callbacks++ })
	require.NoError(t, e.Replace(first))

	second := Within(domain.AttrSentiment, Point{X: 0, Y: 1}, Point{X: -0.5, Y: 0})
	require.NoError(t, e.Replace(second))

	filters := e.Filters()
	require.Len(t, filters, 1)
	assert.Same(t, second, filters[0])
	assert.Equal(t, 0, callbacks, "replacement must not fire OnRemove")
	assert.Equal(t, []uint64{1, 2}, sub.versions)
	assert.Equal(t, []string{"Solaris", "The Left Hand of Darkness"}, selectedTitles(e))
}

func TestEngine_Replace_RejectedFilterChangesNothing(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	active := Within(domain.AttrSentiment, Point{X: 0, Y: 0.3}, Point{X: 0.2, Y: 0.5})
	require.NoError(t, e.Replace(active))
	before := e.Store().Selection()

	tests := []struct {
		name   string
		filter *Filter
		want   error
	}{
		{"wrong operator", Equals(domain.AttrSentiment, "x"), domainerrors.ErrValidation},
		{"missing box", &Filter{Attr: domain.AttrSentiment, Op: OpBoundingBox}, domainerrors.ErrValidation},
		{"same box", Within(domain.AttrSentiment, Point{X: 0.2, Y: 0.5}, Point{X: 0, Y: 0.3}), domainerrors.ErrDuplicateFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, e.Replace(tt.filter), tt.want)

			filters := e.Filters()
			require.Len(t, filters, 1)
			assert.Same(t, active, filters[0])
			assert.Equal(t, before, e.Store().Selection())
			assert.False(t, e.Stale())
			assert.Equal(t, []uint64{1}, sub.versions)
		})
	}
}

func TestEngine_Remove_CallbackMutationNotifiesOnce(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	f := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() {
		require.NoError(t, e.Add(Contains(domain.AttrKeywords, "ocean")))
	})
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{}))

	assert.Equal(t, []uint64{1, 2}, sub.versions, "one removal, one notification")
	assert.False(t, e.Stale())
	assert.Equal(t, []string{"Solaris"}, selectedTitles(e))
}

func TestEngine_Remove_CallbackMutationWaitsForFlush(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)

	f := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() {
		require.NoError(t, e.Add(Contains(domain.AttrKeywords, "ocean")))
	})
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Remove(f, RemoveOptions{SkipNotify: true}))

	assert.True(t, e.Stale())
	assert.Equal(t, []uint64{1}, sub.versions)

	assert.True(t, e.Flush())
	assert.Equal(t, []uint64{1, 2}, sub.versions)
}

func TestEngine_RemoveByAttr(t *testing.T) {
	e := setupEngine(t)

	first := Contains(domain.AttrKeywords, "desert")
	second := Contains(domain.AttrKeywords, "spice")
	require.NoError(t, e.Add(first))
	require.NoError(t, e.Add(second))

	found, err := e.RemoveByAttr(domain.AttrKeywords, RemoveOptions{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []*Filter{second}, e.Filters(), "lowest index goes first")

	found, err = e.RemoveByAttr(domain.AttrPlanet, RemoveOptions{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEngine_RemovalKeepsOrder(t *testing.T) {
	e := setupEngine(t)

	a := Contains(domain.AttrKeywords, "desert")
	b := Contains(domain.AttrPlanet, "Arrakis")
	c := Contains(domain.AttrAuthors, "Frank Herbert")
	for _, f := range []*Filter{a, b, c} {
		require.NoError(t, e.Add(f))
	}
	require.NoError(t, e.Remove(b, RemoveOptions{}))

	assert.Equal(t, []*Filter{a, c}, e.Filters())
}

func TestEngine_RemoveLast(t *testing.T) {
	e := setupEngine(t)

	got, err := e.RemoveLast()
	require.NoError(t, err)
	assert.Nil(t, got)

	called := false
	a := Contains(domain.AttrKeywords, "desert")
	b := Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() { called = true })
	require.NoError(t, e.Add(a))
	require.NoError(t, e.Add(b))

	got, err = e.RemoveLast()
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.True(t, called)
	assert.Equal(t, []*Filter{a}, e.Filters())
}

func TestEngine_Clear(t *testing.T) {
	e := setupEngine(t)
	sub := &countingSubscriber{}

	var order []string
	require.NoError(t, e.Add(Contains(domain.AttrKeywords, "desert").WithOnRemove(func() { order = append(order, "desert") })))
	require.NoError(t, e.Add(Contains(domain.AttrPlanet, "Arrakis").WithOnRemove(func() { order = append(order, "planet") })))
	e.Subscribe(StageRender, "test", sub)

	require.NoError(t, e.Clear())

	assert.Empty(t, e.Filters())
	assert.Len(t, e.Selected(), 4)
	assert.Equal(t, []string{"desert", "planet"}, order)
	assert.Len(t, sub.versions, 1)

	require.NoError(t, e.Clear())
	assert.Len(t, sub.versions, 1, "clearing an empty set is silent")
}

func TestEngine_Add_RejectsInvalidFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
	}{
		{"nil", nil},
		{"unknown dimension", Contains("Publisher", "Ace")},
		{"operator not allowed", InRange(domain.AttrPlanet, 1, 2)},
		{"inverted range", InRange(domain.AttrYear, 1970, 1960)},
		{"empty token", Contains(domain.AttrKeywords, "  ")},
		{"non-numeric year", Equals(domain.AttrYear, "nineteen")},
		{"missing box", &Filter{Attr: domain.AttrSentiment, Op: OpBoundingBox}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupEngine(t)
			sub := &countingSubscriber{}
			e.Subscribe(StageRender, "test", sub)

			err := e.Add(tt.filter)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Empty(t, e.Filters())
			assert.Empty(t, sub.versions)
		})
	}
}

func TestEngine_Add_ParsesNumericText(t *testing.T) {
	e := setupEngine(t)

	require.NoError(t, e.Add(Equals(domain.AttrYear, "1951")))
	assert.Equal(t, []string{"Foundation"}, selectedTitles(e))
}

func TestEngine_MalformedAttributeIsExcludedAndCounted(t *testing.T) {
	schema, err := NewSchema(append(DefaultSchema().Dimensions(), Dimension{Name: "Pages", Kind: KindNumber})...)
	require.NoError(t, err)
	rec := &fakeRecorder{}
	e := setupEngine(t, WithSchema(schema), WithRecorder(rec))

	require.NoError(t, e.Add(InRange("Pages", 200, 500)))

	assert.Equal(t, []string{"Dune", "Foundation"}, selectedTitles(e))
	require.NotEmpty(t, rec.stats)
	last := rec.stats[len(rec.stats)-1]
	assert.Equal(t, 2, last.Malformed["Pages"])
	assert.Equal(t, 2, last.Selected)
	assert.Equal(t, 4, last.Total)
}

func TestEngine_RecorderSeesActions(t *testing.T) {
	rec := &fakeRecorder{}
	e := setupEngine(t, WithRecorder(rec))

	f := EqualsNumber(domain.AttrYear, 1965)
	require.NoError(t, e.Add(f))
	require.NoError(t, e.Add(EqualsNumber(domain.AttrYear, 1969)))
	_ = e.Add(EqualsNumber(domain.AttrYear, 1969))
	_ = e.Remove(f, RemoveOptions{})

	assert.Equal(t, []Action{ActionAdded, ActionReplaced, ActionAdded, ActionDuplicate, ActionUnknown}, rec.actions)
	assert.Len(t, rec.notified, 2)
}

func TestEngine_HistogramScenario(t *testing.T) {
	books := []domain.Book{
		{GoodreadsID: "1", Title: "A", Year: 1950},
		{GoodreadsID: "2", Title: "B", Year: 1965},
		{GoodreadsID: "3", Title: "C", Year: 1965},
	}
	e := New(NewStore(books, nil), WithLogger(discardLogger()))
	defer e.Close()

	assert.Equal(t, map[int]int{1950: 1, 1965: 2}, e.HistogramByYear())

	require.NoError(t, e.Add(InRange(domain.AttrYear, 1960, 1970)))
	assert.Equal(t, map[int]int{1965: 2}, e.HistogramByYear())
}

func TestEngine_KeywordSelfExclusion(t *testing.T) {
	e := setupEngine(t)

	require.NoError(t, e.Add(Contains(domain.AttrKeywords, "spice")))

	got := e.KeywordFrequencies()
	assert.Equal(t, []Count{{Key: "ocean", Count: 4}, {Key: "desert", Count: 3}}, got)
	for _, c := range got {
		assert.NotEqual(t, "spice", c.Key)
	}
}

func TestEngine_CategoryCounts(t *testing.T) {
	e := setupEngine(t)

	counts, err := e.CategoryCounts(domain.AttrPlanet)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"Arrakis": 1, "Caladan": 1, "Solaris": 1, "Trantor": 1, "Terminus": 1, "Gethen": 1,
	}, counts)

	require.NoError(t, e.Add(Contains(domain.AttrPlanet, "Arrakis")))
	counts, err = e.CategoryCounts(domain.AttrPlanet)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Caladan": 1}, counts)

	_, err = e.CategoryCounts(domain.AttrYear)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = e.CategoryCounts("Publisher")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestEngine_EqualsOnListMatchesTheBucketItHides(t *testing.T) {
	e := setupEngine(t)

	require.NoError(t, e.Add(Equals(domain.AttrAuthors, "Ursula Le Guin")))
	assert.Equal(t, []string{"The Left Hand of Darkness"}, selectedTitles(e))

	counts, err := e.CategoryCounts(domain.AttrAuthors)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Ursula K. Le Guin": 1}, counts)
}

func TestEngine_Close(t *testing.T) {
	e := New(NewStore(testBooks(), nil), WithLogger(discardLogger()))
	sub := &countingSubscriber{}
	e.Subscribe(StageRender, "test", sub)
	require.NoError(t, e.Add(Contains(domain.AttrPlanet, "Arrakis")))

	e.Close()
	e.Close()

	assert.Empty(t, e.Filters())
	assert.Len(t, e.Selected(), 4)
	assert.ErrorIs(t, e.Add(Contains(domain.AttrPlanet, "Gethen")), ErrClosed)
	_, err := e.RemoveLast()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Clear(), ErrClosed)
	assert.False(t, e.Flush())
	assert.Len(t, sub.versions, 1)
}

func TestSnapshot_ExposesEngineState(t *testing.T) {
	e := setupEngine(t)

	var got *Snapshot
	var titles []string
	var hist map[int]int
	e.Subscribe(StageAggregates, "probe", SubscriberFunc(func(s *Snapshot) {
		got = s
		for _, b := range s.Selected() {
			titles = append(titles, b.Title)
		}
		hist = s.HistogramByYear()
	}))

	require.NoError(t, e.Add(InRange(domain.AttrYear, 1960, 1966)))

	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.SelectedCount)
	assert.Len(t, got.Filters, 1)
	assert.Equal(t, []string{"Dune", "Solaris"}, titles)
	assert.Equal(t, map[int]int{1961: 1, 1965: 1}, hist)
	assert.Len(t, got.Events(), 3)
}

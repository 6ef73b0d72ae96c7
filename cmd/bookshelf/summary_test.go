package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/dataset"
	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/view"
)

const booksCSV = `Goodreads Id,Title,Authors,Year of Publication,Planet,Summary,polarity,subjectivity
234225,Dune,Frank Herbert,1965,Arrakis,A desert planet.,0.12,0.45
95558,Solaris,Stanisław Lem,1961,Solaris,,-0.2,0.6
29579,Foundation,Isaac Asimov,1951,Trantor,,0.05,0.3
`

func writeDataset(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	return map[string]string{
		"DATA_BOOKS_PATH":    write("books.csv", booksCSV),
		"DATA_KEYWORDS_PATH": write("keywords.csv", "id,keyword,count\n234225,spice,5\n95558,ocean,4\n29579,empire,6\n"),
		"DATA_EVENTS_PATH":   write("events.tsv", "Event\tDate\nSputnik 1\t1957-10-04\nApollo 11\t1969-07-20\n"),
	}
}

func TestParseRange(t *testing.T) {
	lo, hi, err := parseRange("1960:1970")
	require.NoError(t, err)
	assert.Equal(t, 1960.0, lo)
	assert.Equal(t, 1970.0, hi)

	lo, hi, err = parseRange(" 1970 : 1960 ")
	require.NoError(t, err)
	assert.Equal(t, 1960.0, lo, "bounds are reordered")
	assert.Equal(t, 1970.0, hi)

	for _, bad := range []string{"1960", "a:1970", "1960:b", ""} {
		_, _, err := parseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseBox(t *testing.T) {
	box, err := parseBox("0.5,0.8,-0.1,0.2")
	require.NoError(t, err)
	assert.Equal(t, crossfilter.Point{X: 0.5, Y: 0.8}, box.Max)
	assert.Equal(t, crossfilter.Point{X: -0.1, Y: 0.2}, box.Min)

	_, err = parseBox("1,2,3")
	assert.Error(t, err)
	_, err = parseBox("1,2,x,4")
	assert.Error(t, err)
}

func TestSummaryFlags_Requests(t *testing.T) {
	f := &summaryFlags{
		years:     "1960:1970",
		keywords:  []string{"robots"},
		authors:   []string{"Isaac Asimov"},
		sentiment: "0,0,1,1",
	}

	reqs, err := f.requests()
	require.NoError(t, err)
	require.Len(t, reqs, 4)

	assert.Equal(t, domain.AttrYear, reqs[0].Attr)
	assert.Equal(t, &dto.RangeRequest{Min: 1960, Max: 1970}, reqs[0].Range)
	assert.Equal(t, dto.FilterRequest{Attr: domain.AttrKeywords, Op: "contains", Value: "robots"}, reqs[1])
	assert.Equal(t, domain.AttrAuthors, reqs[2].Attr)
	assert.Equal(t, "bbox", reqs[3].Op)
	require.NotNil(t, reqs[3].Box)

	_, err = (&summaryFlags{years: "soon"}).requests()
	assert.ErrorContains(t, err, "--years")
}

func TestSummarize(t *testing.T) {
	opts := (&globalFlags{}).options()
	for k, v := range writeDataset(t) {
		opts.Overrides[k] = v
	}

	reqs, err := (&summaryFlags{years: "1960:1970"}).requests()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, summarize(&out, io.Discard, opts, reqs, false))

	var dash view.Dashboard
	require.NoError(t, json.Unmarshal(out.Bytes(), &dash))
	assert.Equal(t, 2, dash.Bookshelf.Selected)
	assert.Equal(t, 3, dash.Bookshelf.Total)
	assert.Empty(t, dash.Bookshelf.Books)
	require.Len(t, dash.Filters.Items, 1)
	assert.Equal(t, "Year of Publication: 1960 to 1970", dash.Filters.Items[0].Label)
}

func TestSummarize_WithBooksAndKeyword(t *testing.T) {
	opts := (&globalFlags{}).options()
	for k, v := range writeDataset(t) {
		opts.Overrides[k] = v
	}

	reqs, err := (&summaryFlags{keywords: []string{"spice"}}).requests()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, summarize(&out, io.Discard, opts, reqs, true))

	var dash view.Dashboard
	require.NoError(t, json.Unmarshal(out.Bytes(), &dash))
	require.Len(t, dash.Bookshelf.Books, 1)
	assert.Equal(t, "Dune", dash.Bookshelf.Books[0].Title)
}

func TestSummarize_RejectsUnknownAttribute(t *testing.T) {
	opts := (&globalFlags{}).options()
	for k, v := range writeDataset(t) {
		opts.Overrides[k] = v
	}

	reqs := []dto.FilterRequest{{Attr: "Publisher", Op: "equals", Value: "Ace"}}
	err := summarize(io.Discard, io.Discard, opts, reqs, false)
	assert.Error(t, err)
}

func TestSummarize_MissingDataset(t *testing.T) {
	opts := (&globalFlags{}).options()
	opts.Overrides["DATA_BOOKS_PATH"] = filepath.Join(t.TempDir(), "absent.csv")

	err := summarize(io.Discard, io.Discard, opts, nil, false)
	assert.Error(t, err)
}

func TestBootstrapError(t *testing.T) {
	cell := fmt.Errorf("books.csv: %w", &dataset.ParseError{Line: 3, Column: "Year of Publication", Err: errors.New("invalid syntax")})

	err := bootstrapError(cell)
	assert.ErrorIs(t, err, domainerrors.ErrMalformedAttribute)
	assert.Contains(t, err.Error(), "malformed cell")
	assert.Contains(t, err.Error(), "line 3")

	err = bootstrapError(errors.New("open absent.csv: no such file"))
	assert.NotErrorIs(t, err, domainerrors.ErrMalformedAttribute)
	assert.Contains(t, err.Error(), "bootstrap server")
}

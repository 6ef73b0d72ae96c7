package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/normalize"
)

// Column names of the source files.
const (
	colKeywordID    = "id"
	colKeyword      = "keyword"
	colKeywordCount = "count"
	colEventName    = "Event"
	colEventDate    = "Date"
)

var requiredBookColumns = []string{domain.AttrGoodreadsID, domain.AttrTitle, domain.AttrYear}

// eventDateLayouts are tried in order.
var eventDateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"2006",
}

// ParseError reports the file line of a malformed cell.
type ParseError struct {
	Err    error
	Column string
	Line   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches errors.ErrMalformedAttribute so callers can tell a bad cell
// from an unreadable file.
func (e *ParseError) Is(target error) bool {
	return target == domainerrors.ErrMalformedAttribute
}

// table is a header-indexed reader over delimited text.
type table struct {
	r      *csv.Reader
	cols   map[string]int
	header []string
}

func newTable(r io.Reader, comma rune) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = comma == '\t'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{r: cr, header: header, cols: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.header[i] = h
		if _, dup := t.cols[h]; !dup {
			t.cols[h] = i
		}
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}
	return nil
}

// next returns the next row, or io.EOF.
func (t *table) next() ([]string, int, error) {
	row, err := t.r.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := t.r.FieldPos(0)
	return row, line, nil
}

func cell(t *table, row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadBooks parses the book master file. Empty numeric cells read as zero;
// any other unparsable number is an error. Columns other than the named
// book fields are kept in Book.Extra.
func ReadBooks(r io.Reader) ([]domain.Book, error) {
	t, err := newTable(r, ',')
	if err != nil {
		return nil, err
	}
	if err := t.require(requiredBookColumns...); err != nil {
		return nil, err
	}

	known := map[string]bool{
		domain.AttrGoodreadsID: true, domain.AttrTitle: true, domain.AttrAuthors: true,
		domain.AttrYear: true, domain.AttrPlanet: true, domain.AttrSummary: true,
		domain.AttrPolarity: true, domain.AttrSubjectivity: true,
	}

	books := make([]domain.Book, 0)
	for {
		row, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		b := domain.Book{
			GoodreadsID: cell(t, row, domain.AttrGoodreadsID),
			Title:       cell(t, row, domain.AttrTitle),
			Authors:     cell(t, row, domain.AttrAuthors),
			Planet:      cell(t, row, domain.AttrPlanet),
			Summary:     cell(t, row, domain.AttrSummary),
		}
		year, err := parseNumber(t, row, line, domain.AttrYear)
		if err != nil {
			return nil, err
		}
		b.Year = int(year)
		if b.Sentiment.Polarity, err = parseNumber(t, row, line, domain.AttrPolarity); err != nil {
			return nil, err
		}
		if b.Sentiment.Subjectivity, err = parseNumber(t, row, line, domain.AttrSubjectivity); err != nil {
			return nil, err
		}

		for i, h := range t.header {
			if known[h] || h == "" || i >= len(row) {
				continue
			}
			if b.Extra == nil {
				b.Extra = make(map[string]string)
			}
			b.Extra[h] = strings.TrimSpace(row[i])
		}
		books = append(books, b)
	}
	return books, nil
}

func parseNumber(t *table, row []string, line int, col string) (float64, error) {
	raw := cell(t, row, col)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Line: line, Column: col, Err: err}
	}
	return n, nil
}

// ReadKeywords parses the (id, keyword, count) pairs, grouped by book id in
// file order. It also returns the number of rows read.
func ReadKeywords(r io.Reader) (map[string][]domain.KeywordCount, int, error) {
	t, err := newTable(r, ',')
	if err != nil {
		return nil, 0, err
	}
	if err := t.require(colKeywordID, colKeyword, colKeywordCount); err != nil {
		return nil, 0, err
	}

	out := make(map[string][]domain.KeywordCount)
	rows := 0
	for {
		row, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		rows++

		kw := normalize.Token(cell(t, row, colKeyword))
		if kw == "" {
			return nil, 0, &ParseError{Line: line, Column: colKeyword, Err: errors.New("empty keyword")}
		}
		count, err := strconv.Atoi(cell(t, row, colKeywordCount))
		if err != nil {
			return nil, 0, &ParseError{Line: line, Column: colKeywordCount, Err: err}
		}
		id := cell(t, row, colKeywordID)
		out[id] = append(out[id], domain.KeywordCount{Keyword: kw, Count: count})
	}
	return out, rows, nil
}

// ReadEvents parses the tab-separated event list.
func ReadEvents(r io.Reader) ([]domain.TimelineEvent, error) {
	t, err := newTable(r, '\t')
	if err != nil {
		return nil, err
	}
	if err := t.require(colEventName, colEventDate); err != nil {
		return nil, err
	}

	events := make([]domain.TimelineEvent, 0)
	for {
		row, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		date, err := parseDate(cell(t, row, colEventDate))
		if err != nil {
			return nil, &ParseError{Line: line, Column: colEventDate, Err: err}
		}
		events = append(events, domain.TimelineEvent{Name: cell(t, row, colEventName), Date: date})
	}
	return events, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

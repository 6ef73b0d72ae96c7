package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	"github.com/listenupapp/bookshelf/internal/config"
	"github.com/listenupapp/bookshelf/internal/crossfilter"
	"github.com/listenupapp/bookshelf/internal/di"
	"github.com/listenupapp/bookshelf/internal/di/providers"
	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/validation"
	"github.com/listenupapp/bookshelf/internal/view"
)

type summaryFlags struct {
	years     string
	keywords  []string
	planets   []string
	authors   []string
	sentiment string
	books     bool
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	f := &summaryFlags{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Apply filters once and print the dashboard as JSON",
		Example: `  bookshelf summary --years 1960:1970 --keyword robots
  bookshelf summary --planet Mars --sentiment 0,0,0.5,0.5 --books`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			requests, err := f.requests()
			if err != nil {
				return err
			}
			return summarize(cmd.OutOrStdout(), cmd.ErrOrStderr(), g.options(), requests, f.books)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.years, "years", "", "publication year range, min:max")
	fl.StringSliceVar(&f.keywords, "keyword", nil, "keyword the book must carry (repeatable)")
	fl.StringSliceVar(&f.planets, "planet", nil, "planet the book is set on (repeatable)")
	fl.StringSliceVar(&f.authors, "author", nil, "author of the book (repeatable)")
	fl.StringVar(&f.sentiment, "sentiment", "", "polarity/subjectivity box, x1,y1,x2,y2")
	fl.BoolVar(&f.books, "books", false, "include the selected book cards")
	return cmd
}

// requests turns the flags into filter requests: years, keywords, planets,
// authors, then the sentiment box.
func (f *summaryFlags) requests() ([]dto.FilterRequest, error) {
	var out []dto.FilterRequest

	if f.years != "" {
		lo, hi, err := parseRange(f.years)
		if err != nil {
			return nil, fmt.Errorf("--years: %w", err)
		}
		out = append(out, dto.FilterRequest{
			Attr:  domain.AttrYear,
			Op:    string(crossfilter.OpRange),
			Range: &dto.RangeRequest{Min: lo, Max: hi},
		})
	}
	for _, kw := range f.keywords {
		out = append(out, dto.FilterRequest{Attr: domain.AttrKeywords, Op: string(crossfilter.OpContains), Value: kw})
	}
	for _, p := range f.planets {
		out = append(out, dto.FilterRequest{Attr: domain.AttrPlanet, Op: string(crossfilter.OpContains), Value: p})
	}
	for _, a := range f.authors {
		out = append(out, dto.FilterRequest{Attr: domain.AttrAuthors, Op: string(crossfilter.OpContains), Value: a})
	}
	if f.sentiment != "" {
		box, err := parseBox(f.sentiment)
		if err != nil {
			return nil, fmt.Errorf("--sentiment: %w", err)
		}
		out = append(out, dto.FilterRequest{Attr: domain.AttrSentiment, Op: string(crossfilter.OpBoundingBox), Box: &box})
	}
	return out, nil
}

func summarize(w, logw io.Writer, opts config.Options, requests []dto.FilterRequest, withBooks bool) error {
	injector := di.NewContainer(opts)
	defer func() { _ = injector.Shutdown() }()
	do.ProvideNamedValue[io.Writer](injector, providers.LogWriter, logw)

	handle, err := do.Invoke[*providers.DashboardHandle](injector)
	if err != nil {
		return bootstrapError(err)
	}

	v := validation.New()
	for _, req := range requests {
		if err := v.Validate(req); err != nil {
			return err
		}
		if _, err := handle.AddFilter(req); err != nil {
			return err
		}
	}

	dash := handle.Current()
	if !withBooks {
		dash.Bookshelf.Books = []view.BookCard{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dash)
}

// parseRange reads "min:max". Either order is accepted.
func parseRange(s string) (lo, hi float64, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.New("want min:max")
	}
	if lo, err = strconv.ParseFloat(strings.TrimSpace(a), 64); err != nil {
		return 0, 0, fmt.Errorf("min: %w", err)
	}
	if hi, err = strconv.ParseFloat(strings.TrimSpace(b), 64); err != nil {
		return 0, 0, fmt.Errorf("max: %w", err)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// parseBox reads two opposite corners "x1,y1,x2,y2" in any order.
func parseBox(s string) (crossfilter.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return crossfilter.Box{}, errors.New("want x1,y1,x2,y2")
	}
	var n [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return crossfilter.Box{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		n[i] = v
	}
	return crossfilter.NewBox(
		crossfilter.Point{X: n[0], Y: n[1]},
		crossfilter.Point{X: n[2], Y: n[3]},
	), nil
}

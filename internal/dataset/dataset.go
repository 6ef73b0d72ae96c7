// Package dataset loads the bookshelf's three source files: the book
// master CSV, the book-keyword pairs CSV and the space exploration events TSV.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// Paths locates the source files.
type Paths struct {
	Books    string
	Keywords string
	Events   string
}

// Dataset is the loaded, immutable input of the engine.
type Dataset struct {
	Books  []domain.Book
	Events []domain.TimelineEvent
	// KeywordPairs is the number of rows read from the keywords file.
	KeywordPairs int
	// Orphans counts keyword rows whose id matches no book.
	Orphans int
}

// Load reads the three files concurrently and joins keywords to books by
// Goodreads id. Any read or parse failure aborts the load. An empty
// Events path loads no events.
func Load(ctx context.Context, paths Paths, logger *slog.Logger) (*Dataset, error) {
	start := time.Now()

	var (
		books    []domain.Book
		keywords map[string][]domain.KeywordCount
		pairs    int
		events   []domain.TimelineEvent
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = readFile(ctx, paths.Books, ReadBooks)
		return err
	})
	g.Go(func() error {
		return withFile(ctx, paths.Keywords, func(f *os.File) error {
			var err error
			keywords, pairs, err = ReadKeywords(f)
			return err
		})
	})
	if paths.Events != "" {
		g.Go(func() error {
			var err error
			events, err = readFile(ctx, paths.Events, ReadEvents)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{Books: books, Events: events, KeywordPairs: pairs}
	ds.Orphans = attachKeywords(ds.Books, keywords)

	logger.Info("dataset loaded",
		slog.Int("books", len(ds.Books)),
		slog.Int("keyword_pairs", ds.KeywordPairs),
		slog.Int("events", len(ds.Events)),
		slog.Duration("took", time.Since(start)))
	if ds.Orphans > 0 {
		logger.Warn("keyword rows reference unknown books", slog.Int("rows", ds.Orphans))
	}
	return ds, nil
}

func withFile(ctx context.Context, path string, fn func(*os.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func readFile[T any](ctx context.Context, path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	var out []T
	err := withFile(ctx, path, func(f *os.File) error {
		var err error
		out, err = read(f)
		return err
	})
	return out, err
}

// attachKeywords sets each book's keyword list and returns how many pairs
// were left without a book.
func attachKeywords(books []domain.Book, keywords map[string][]domain.KeywordCount) int {
	used := make(map[string]bool, len(keywords))
	for i := range books {
		id := books[i].GoodreadsID
		if kws, ok := keywords[id]; ok {
			books[i].Keywords = kws
			used[id] = true
		}
	}
	orphans := 0
	for id, kws := range keywords {
		if !used[id] {
			orphans += len(kws)
		}
	}
	return orphans
}

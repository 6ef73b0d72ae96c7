package search

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// Index wraps an in-memory Bleve index of the dataset's books.
//
// Thread safety: All public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewIndex creates an empty in-memory index. A nil logger discards output.
func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Index{index: index, logger: logger}, nil
}

// Build creates an index holding every book that has a Goodreads id.
func Build(books []domain.Book, logger *slog.Logger) (*Index, error) {
	idx, err := NewIndex(logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs := make([]*Document, 0, len(books))
	for i := range books {
		if books[i].GoodreadsID == "" {
			continue
		}
		docs = append(docs, BookToDocument(&books[i]))
	}

	if err := idx.IndexDocuments(docs); err != nil {
		_ = idx.Close()
		return nil, err
	}

	idx.logger.Info("search index built",
		slog.Int("documents", len(docs)),
		slog.Duration("took", time.Since(start)))
	return idx, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocuments indexes documents in batches.
func (s *Index) IndexDocuments(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			// Convert to map to ensure field names match the mapping (lowercase)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

package crossfilter

import (
	"github.com/listenupapp/bookshelf/internal/domain"
)

// Store holds the immutable dataset and the per-book selected flag.
// Only the evaluator writes the selected flags.
type Store struct {
	byID     map[string]int
	books    []domain.Book
	events   []domain.TimelineEvent
	selected []bool
}

// NewStore copies the dataset into a store with every book selected.
func NewStore(books []domain.Book, events []domain.TimelineEvent) *Store {
	s := &Store{
		byID:     make(map[string]int, len(books)),
		books:    make([]domain.Book, len(books)),
		events:   make([]domain.TimelineEvent, len(events)),
		selected: make([]bool, len(books)),
	}
	copy(s.books, books)
	copy(s.events, events)
	for i := range s.books {
		s.selected[i] = true
		if id := s.books[i].GoodreadsID; id != "" {
			if _, dup := s.byID[id]; !dup {
				s.byID[id] = i
			}
		}
	}
	return s
}

// Len returns the number of books.
func (s *Store) Len() int {
	return len(s.books)
}

// Book returns the i-th book in load order. Callers must not modify it.
func (s *Store) Book(i int) *domain.Book {
	return &s.books[i]
}

// Lookup finds a book by Goodreads id.
func (s *Store) Lookup(goodreadsID string) (*domain.Book, bool) {
	i, ok := s.byID[goodreadsID]
	if !ok {
		return nil, false
	}
	return &s.books[i], true
}

// IsSelected reports the selected flag of the i-th book.
func (s *Store) IsSelected(i int) bool {
	return s.selected[i]
}

// IsSelectedID reports the selected flag of the book with the given Goodreads
// id. ok is false when no book has that id.
func (s *Store) IsSelectedID(goodreadsID string) (selected, ok bool) {
	i, ok := s.byID[goodreadsID]
	if !ok {
		return false, false
	}
	return s.selected[i], true
}

// Selected returns the selected books in load order.
func (s *Store) Selected() []*domain.Book {
	out := make([]*domain.Book, 0, len(s.books))
	for i := range s.books {
		if s.selected[i] {
			out = append(out, &s.books[i])
		}
	}
	return out
}

// SelectedCount returns how many books are selected.
func (s *Store) SelectedCount() int {
	n := 0
	for _, sel := range s.selected {
		if sel {
			n++
		}
	}
	return n
}

// Selection returns a copy of the selected flags, indexed like the books.
func (s *Store) Selection() []bool {
	out := make([]bool, len(s.selected))
	copy(out, s.selected)
	return out
}

// Events returns the timeline events.
func (s *Store) Events() []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, len(s.events))
	copy(out, s.events)
	return out
}

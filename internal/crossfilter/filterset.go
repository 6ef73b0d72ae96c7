package crossfilter

// FilterSet is the ordered collection of active filters.
// Insertion order is display order; removal never reorders the rest.
type FilterSet struct {
	filters []*Filter
}

// Len returns the number of active filters.
func (s *FilterSet) Len() int {
	return len(s.filters)
}

// All returns the filters in insertion order.
func (s *FilterSet) All() []*Filter {
	out := make([]*Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Contains reports whether f itself (by identity) is in the set.
func (s *FilterSet) Contains(f *Filter) bool {
	return s.indexOf(f) >= 0
}

// ByID returns the filter with the given id.
func (s *FilterSet) ByID(id string) (*Filter, bool) {
	for _, f := range s.filters {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// FirstByAttr returns the lowest-index filter on attr.
func (s *FilterSet) FirstByAttr(attr string) (*Filter, bool) {
	for _, f := range s.filters {
		if f.Attr == attr {
			return f, true
		}
	}
	return nil, false
}

// Last returns the most recently inserted filter.
func (s *FilterSet) Last() (*Filter, bool) {
	if len(s.filters) == 0 {
		return nil, false
	}
	return s.filters[len(s.filters)-1], true
}

// OperandTokens returns the text operands of every filter on attr.
// Aggregates skip these tokens so a view never counts its own filter.
func (s *FilterSet) OperandTokens(attr string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range s.filters {
		if f.Attr == attr && f.Operand.Text != "" {
			tokens[f.Operand.Text] = struct{}{}
		}
	}
	return tokens
}

// insert appends f. A structurally identical filter makes it a no-op and is
// returned as dup. On an exclusive dimension, an existing filter with a
// different value is dropped and returned as replaced.
func (s *FilterSet) insert(f *Filter, exclusive bool) (dup, replaced *Filter) {
	key := f.Key()
	replaceAt := -1
	for i, existing := range s.filters {
		if existing.Attr != f.Attr {
			continue
		}
		if existing == f || existing.Key() == key {
			return existing, nil
		}
		if exclusive && replaceAt < 0 {
			replaceAt = i
		}
	}
	if replaceAt >= 0 {
		replaced = s.removeAt(replaceAt)
	}
	s.filters = append(s.filters, f)
	return nil, replaced
}

// remove drops f by identity and reports whether it was present.
func (s *FilterSet) remove(f *Filter) bool {
	i := s.indexOf(f)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	return true
}

func (s *FilterSet) removeAt(i int) *Filter {
	f := s.filters[i]
	s.filters = append(s.filters[:i], s.filters[i+1:]...)
	return f
}

func (s *FilterSet) indexOf(f *Filter) int {
	for i, existing := range s.filters {
		if existing == f {
			return i
		}
	}
	return -1
}

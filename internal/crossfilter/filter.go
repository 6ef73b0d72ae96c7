package crossfilter

import (
	"strconv"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/normalize"
)

// Filter is a named predicate over one attribute dimension.
//
// Filters are compared by identity (pointer) on removal and by structure
// (attribute, operator and operand) on insertion.
type Filter struct {
	// OnRemove runs when the filter is revoked through Remove without SkipCallback.
	// It does not run when an exclusive dimension replaces the filter.
	OnRemove func() `json:"-"`

	ID      string   `json:"id"`
	Attr    string   `json:"attr"`
	Op      Operator `json:"op"`
	Operand Operand  `json:"operand"`
}

// Equals builds a text equality filter.
func Equals(attr, text string) *Filter {
	return &Filter{Attr: attr, Op: OpEquals, Operand: Operand{Text: text}}
}

// EqualsNumber builds a numeric equality filter, e.g. a single publication year.
func EqualsNumber(attr string, n float64) *Filter {
	return &Filter{Attr: attr, Op: OpEquals, Operand: Operand{Number: &n}}
}

// InRange builds an inclusive numeric range filter.
func InRange(attr string, lo, hi float64) *Filter {
	return &Filter{Attr: attr, Op: OpRange, Operand: Operand{Range: &Range{Min: lo, Max: hi}}}
}

// Contains builds a containment filter: list token, keyword, or substring.
func Contains(attr, token string) *Filter {
	return &Filter{Attr: attr, Op: OpContains, Operand: Operand{Text: token}}
}

// Within builds a bounding-box filter from two opposite corners.
func Within(attr string, a, b Point) *Filter {
	box := NewBox(a, b)
	return &Filter{Attr: attr, Op: OpBoundingBox, Operand: Operand{Box: &box}}
}

// WithOnRemove attaches a revocation callback and returns the filter.
func (f *Filter) WithOnRemove(fn func()) *Filter {
	f.OnRemove = fn
	return f
}

// Key is the structural identity of the filter.
func (f *Filter) Key() string {
	return f.Attr + "\x1f" + string(f.Op) + "\x1f" + f.Operand.canonical()
}

// Matches evaluates the filter against a single book.
// The second return value is false when the book has no usable value for
// the filter's attribute; such a book never matches.
func (f *Filter) Matches(b *domain.Book, dim Dimension) (matched, ok bool) {
	v, ok := attribute(b, dim)
	if !ok {
		return false, false
	}
	return match(f.Op, f.Operand, v), true
}

// validate checks the filter against the schema and normalizes its operand.
func (f *Filter) validate(s *Schema) (Dimension, error) {
	if f == nil {
		return Dimension{}, domainerrors.Validation("filter is nil")
	}
	dim, ok := s.Lookup(f.Attr)
	if !ok {
		return Dimension{}, domainerrors.Validationf("unknown dimension %q", f.Attr)
	}
	if !dim.Allows(f.Op) {
		return Dimension{}, domainerrors.Validationf("operator %q is not valid for %s dimension %q", f.Op, dim.Kind, f.Attr)
	}

	switch f.Op {
	case OpEquals:
		if dim.Kind == KindNumber {
			if f.Operand.Number == nil {
				n, err := strconv.ParseFloat(f.Operand.Text, 64)
				if err != nil {
					return Dimension{}, domainerrors.Validationf("dimension %q needs a numeric operand, got %q", f.Attr, f.Operand.Text)
				}
				f.Operand.Number = &n
				f.Operand.Text = ""
			}
			return dim, nil
		}
		if f.Operand.Number != nil {
			return Dimension{}, domainerrors.Validationf("dimension %q needs a text operand", f.Attr)
		}
		f.Operand.Text = normalize.Token(f.Operand.Text)
		if f.Operand.Text == "" {
			return Dimension{}, domainerrors.Validationf("dimension %q needs a non-empty operand", f.Attr)
		}
	case OpRange:
		r := f.Operand.Range
		if r == nil {
			return Dimension{}, domainerrors.Validationf("range filter on %q has no range", f.Attr)
		}
		if r.Min > r.Max {
			return Dimension{}, domainerrors.Validationf("range filter on %q has min %s above max %s", f.Attr, fmtFloat(r.Min), fmtFloat(r.Max))
		}
	case OpContains:
		f.Operand.Text = normalize.Token(f.Operand.Text)
		if f.Operand.Text == "" {
			return Dimension{}, domainerrors.Validationf("contains filter on %q needs a non-empty token", f.Attr)
		}
	case OpBoundingBox:
		if f.Operand.Box == nil {
			return Dimension{}, domainerrors.Validationf("bbox filter on %q has no box", f.Attr)
		}
		box := NewBox(f.Operand.Box.Max, f.Operand.Box.Min)
		f.Operand.Box = &box
	}
	return dim, nil
}

// attribute resolves a book's value for a dimension.
func attribute(b *domain.Book, dim Dimension) (value, bool) {
	switch dim.Kind {
	case KindText, KindList:
		s, ok := b.Text(dim.Name)
		return value{kind: dim.Kind, text: s}, ok
	case KindNumber:
		switch dim.Name {
		case domain.AttrYear:
			return value{kind: KindNumber, number: float64(b.Year)}, true
		case domain.AttrPolarity:
			return value{kind: KindNumber, number: b.Sentiment.Polarity}, true
		case domain.AttrSubjectivity:
			return value{kind: KindNumber, number: b.Sentiment.Subjectivity}, true
		}
		s, ok := b.Extra[dim.Name]
		if !ok {
			return value{}, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value{}, false
		}
		return value{kind: KindNumber, number: n}, true
	case KindPoint:
		if dim.Name != domain.AttrSentiment {
			return value{}, false
		}
		return value{kind: KindPoint, point: Point{X: b.Sentiment.Polarity, Y: b.Sentiment.Subjectivity}}, true
	case KindKeywords:
		if dim.Name != domain.AttrKeywords {
			return value{}, false
		}
		return value{kind: KindKeywords, keywords: b.Keywords}, true
	default:
		return value{}, false
	}
}

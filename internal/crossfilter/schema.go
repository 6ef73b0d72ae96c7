package crossfilter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/listenupapp/bookshelf/internal/domain"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

// Kind is the semantic type of a filterable dimension. It decides which
// operators apply and which group key type aggregates use.
type Kind string

const (
	// KindText is a single-valued string attribute.
	KindText Kind = "text"
	// KindList is a comma-joined multi-valued string attribute (authors, planets).
	KindList Kind = "list"
	// KindNumber is a numeric attribute (publication year, polarity).
	KindNumber Kind = "number"
	// KindPoint is a 2D attribute (the sentiment pair).
	KindPoint Kind = "point"
	// KindKeywords is the per-book (keyword, count) list.
	KindKeywords Kind = "keywords"
)

func (k Kind) valid() bool {
	switch k {
	case KindText, KindList, KindNumber, KindPoint, KindKeywords:
		return true
	default:
		return false
	}
}

// Dimension declares one filterable attribute.
// Exclusive dimensions hold at most one filter; adding another value replaces it.
type Dimension struct {
	Name      string `yaml:"name" json:"name"`
	Kind      Kind   `yaml:"kind" json:"kind"`
	Label     string `yaml:"label,omitempty" json:"label,omitempty"`
	Exclusive bool   `yaml:"exclusive,omitempty" json:"exclusive"`
}

// DisplayName returns the label shown in the filter list.
func (d Dimension) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Allows reports whether op can be applied to this dimension.
func (d Dimension) Allows(op Operator) bool {
	switch d.Kind {
	case KindText, KindList:
		return op == OpEquals || op == OpContains
	case KindNumber:
		return op == OpEquals || op == OpRange
	case KindPoint:
		return op == OpBoundingBox
	case KindKeywords:
		return op == OpContains
	default:
		return false
	}
}

// Schema is the ordered set of dimensions an engine accepts filters on.
type Schema struct {
	byName map[string]int
	dims   []Dimension
}

// NewSchema builds a schema, rejecting empty names, unknown kinds and duplicates.
func NewSchema(dims ...Dimension) (*Schema, error) {
	s := &Schema{
		byName: make(map[string]int, len(dims)),
		dims:   make([]Dimension, 0, len(dims)),
	}
	for _, d := range dims {
		if d.Name == "" {
			return nil, domainerrors.Validation("dimension name is required")
		}
		if !d.Kind.valid() {
			return nil, domainerrors.Validationf("dimension %q has unknown kind %q", d.Name, d.Kind)
		}
		if _, dup := s.byName[d.Name]; dup {
			return nil, domainerrors.Validationf("dimension %q declared twice", d.Name)
		}
		s.byName[d.Name] = len(s.dims)
		s.dims = append(s.dims, d)
	}
	return s, nil
}

// DefaultSchema returns the dimensions of the bookshelf dataset.
// Publication year is the only exclusive dimension.
func DefaultSchema() *Schema {
	s, err := NewSchema(
		Dimension{Name: domain.AttrGoodreadsID, Kind: KindText, Label: "Book"},
		Dimension{Name: domain.AttrTitle, Kind: KindText},
		Dimension{Name: domain.AttrAuthors, Kind: KindList},
		Dimension{Name: domain.AttrYear, Kind: KindNumber, Exclusive: true},
		Dimension{Name: domain.AttrPlanet, Kind: KindList},
		Dimension{Name: domain.AttrSummary, Kind: KindText},
		Dimension{Name: domain.AttrKeywords, Kind: KindKeywords},
		Dimension{Name: domain.AttrSentiment, Kind: KindPoint, Label: "polarity, subjectivity"},
		Dimension{Name: domain.AttrPolarity, Kind: KindNumber},
		Dimension{Name: domain.AttrSubjectivity, Kind: KindNumber},
	)
	if err != nil {
		panic(fmt.Sprintf("default schema: %v", err))
	}
	return s
}

type schemaFile struct {
	Dimensions []Dimension `yaml:"dimensions"`
}

// LoadSchema parses a YAML schema document:
//
//	dimensions:
//	  - name: Year of Publication
//	    kind: number
//	    exclusive: true
func LoadSchema(r io.Reader) (*Schema, error) {
	var f schemaFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, domainerrors.Validation("invalid schema document").WithCause(err)
	}
	if len(f.Dimensions) == 0 {
		return nil, domainerrors.Validation("schema declares no dimensions")
	}
	return NewSchema(f.Dimensions...)
}

// Lookup returns the dimension with the given name.
func (s *Schema) Lookup(name string) (Dimension, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Dimension{}, false
	}
	return s.dims[i], true
}

// Dimensions returns the declared dimensions in declaration order.
func (s *Schema) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dims))
	copy(out, s.dims)
	return out
}

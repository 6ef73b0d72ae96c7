package crossfilter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/listenupapp/bookshelf/internal/domain"
	"github.com/listenupapp/bookshelf/internal/normalize"
)

// Operator is the predicate variant a filter applies.
type Operator string

const (
	// OpEquals matches a text or number attribute exactly. On a list
	// dimension it matches one whole token, e.g. a single author.
	OpEquals Operator = "equals"
	// OpRange matches numbers within [Min, Max], both ends inclusive.
	OpRange Operator = "range"
	// OpContains matches list tokens, keywords, or substrings of plain text.
	OpContains Operator = "contains"
	// OpBoundingBox matches 2D points inside a box.
	OpBoundingBox Operator = "bbox"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Point is a 2D coordinate; for sentiment X is polarity and Y is subjectivity.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned rectangle given by its max and min corners.
// A point is inside when min <= p < max on both axes: the min edges are
// included and the max edges are not.
type Box struct {
	Max Point `json:"max"`
	Min Point `json:"min"`
}

// NewBox builds a box from two opposite corners given in any order.
func NewBox(a, b Point) Box {
	return Box{
		Max: Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
		Min: Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
	}
}

// Contains applies the half-open corner convention.
// TODO: decide with the sentiment view whether points on the max edges should match; they are excluded today.
func (b Box) Contains(p Point) bool {
	return b.Min.X <= p.X && p.X < b.Max.X &&
		b.Min.Y <= p.Y && p.Y < b.Max.Y
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.Max.X + b.Min.X) / 2, Y: (b.Max.Y + b.Min.Y) / 2}
}

// MarshalJSON encodes the box as [[maxX, maxY], [minX, minY]].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{{b.Max.X, b.Max.Y}, {b.Min.X, b.Min.Y}})
}

// UnmarshalJSON accepts a pair of opposite corners in any order.
func (b *Box) UnmarshalJSON(data []byte) error {
	var corners [2][2]float64
	if err := json.Unmarshal(data, &corners); err != nil {
		return fmt.Errorf("box must be a pair of [x, y] corners: %w", err)
	}
	*b = NewBox(Point{X: corners[0][0], Y: corners[0][1]}, Point{X: corners[1][0], Y: corners[1][1]})
	return nil
}

// Operand is the value a filter compares against. Exactly one field is
// meaningful for a given operator: Text or Number for equals, Range for
// range, Text for contains, Box for bbox.
type Operand struct {
	Range  *Range   `json:"range,omitempty"`
	Box    *Box     `json:"box,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// canonical renders the operand as a stable string for structural identity.
func (o Operand) canonical() string {
	switch {
	case o.Box != nil:
		return fmt.Sprintf("b:%s,%s;%s,%s", fmtFloat(o.Box.Max.X), fmtFloat(o.Box.Max.Y), fmtFloat(o.Box.Min.X), fmtFloat(o.Box.Min.Y))
	case o.Range != nil:
		return "r:" + fmtFloat(o.Range.Min) + ".." + fmtFloat(o.Range.Max)
	case o.Number != nil:
		return "n:" + fmtFloat(*o.Number)
	default:
		return "t:" + o.Text
	}
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// value is a book attribute resolved against its dimension kind.
type value struct {
	text     string
	keywords []domain.KeywordCount
	point    Point
	number   float64
	kind     Kind
}

// match evaluates op against an attribute value. It is a pure function of its inputs.
func match(op Operator, operand Operand, v value) bool {
	switch op {
	case OpEquals:
		switch v.kind {
		case KindNumber:
			return operand.Number != nil && v.number == *operand.Number
		case KindList:
			return contains(v, operand.Text)
		}
		return normalize.Token(v.text) == operand.Text
	case OpRange:
		return operand.Range != nil && operand.Range.Contains(v.number)
	case OpContains:
		return contains(v, operand.Text)
	case OpBoundingBox:
		return operand.Box != nil && operand.Box.Contains(v.point)
	default:
		return false
	}
}

func contains(v value, token string) bool {
	switch v.kind {
	case KindKeywords:
		for _, k := range v.keywords {
			if normalize.Token(k.Keyword) == token {
				return true
			}
		}
		return false
	case KindList:
		for _, t := range normalize.Tokens(v.text) {
			if t == token {
				return true
			}
		}
		return false
	default:
		return strings.Contains(v.text, token)
	}
}

package dto

import (
	"github.com/listenupapp/bookshelf/internal/crossfilter"
)

// RangeRequest is an inclusive numeric interval.
type RangeRequest struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

// FilterRequest is the body of POST /filters.
//
//	{"attr": "Year of Publication", "op": "range", "range": {"min": 1960, "max": 1970}}
//	{"attr": "keywords", "op": "contains", "value": "robots"}
//	{"attr": "sentiment", "op": "bbox", "box": [[0.3, 0.8], [-0.1, 0.2]]}
type FilterRequest struct {
	Range *RangeRequest    `json:"range,omitempty" validate:"required_if=Op range"`
	Box   *crossfilter.Box `json:"box,omitempty" validate:"required_if=Op bbox"`
	Attr  string           `json:"attr" validate:"required,max=128"`
	Op    string           `json:"op" validate:"required,oneof=equals range contains bbox"`
	Value string           `json:"value,omitempty" validate:"required_if=Op equals,required_if=Op contains,max=256"`
}

// Filter converts the request into an engine filter. The engine checks it
// against the dimension schema when it is added.
func (r FilterRequest) Filter() *crossfilter.Filter {
	switch crossfilter.Operator(r.Op) {
	case crossfilter.OpRange:
		return crossfilter.InRange(r.Attr, r.Range.Min, r.Range.Max)
	case crossfilter.OpContains:
		return crossfilter.Contains(r.Attr, r.Value)
	case crossfilter.OpBoundingBox:
		return crossfilter.Within(r.Attr, r.Box.Max, r.Box.Min)
	default:
		return crossfilter.Equals(r.Attr, r.Value)
	}
}

package crossfilter

import (
	"math"
	"strconv"

	"github.com/listenupapp/bookshelf/internal/domain"
)

// Sentiment label thresholds. Polarity is centred on 0, subjectivity on 0.5.
const (
	polarityThreshold         = 0.15
	veryPolarityThreshold     = 0.45
	subjectivityThreshold     = 0.2
	verySubjectivityThreshold = 0.3
)

// Label renders a filter as "name: value" for the active filter list.
func Label(s *Schema, f *Filter) string {
	name := f.Attr
	if dim, ok := s.Lookup(f.Attr); ok {
		name = dim.DisplayName()
	}
	return name + ": " + ValueLabel(f)
}

// ValueLabel renders a filter's operand. Ranges read "lo to hi", keywords
// are quoted and a bounding box is described by the sentiment at its centre.
func ValueLabel(f *Filter) string {
	o := f.Operand
	switch {
	case o.Box != nil:
		return SentimentLabel(o.Box.Center())
	case o.Range != nil:
		return fmtFloat(o.Range.Min) + " to " + fmtFloat(o.Range.Max)
	case o.Number != nil:
		return fmtFloat(*o.Number)
	case f.Op == OpContains && f.Attr == domain.AttrKeywords:
		return strconv.Quote(o.Text)
	default:
		return o.Text
	}
}

// SentimentLabel describes a (polarity, subjectivity) point in words,
// e.g. "very positive, objective".
func SentimentLabel(p Point) string {
	return scaleLabel(p.X, polarityThreshold, veryPolarityThreshold, "positive", "negative") +
		", " +
		scaleLabel(p.Y-0.5, subjectivityThreshold, verySubjectivityThreshold, "subjective", "objective")
}

func scaleLabel(v, threshold, veryThreshold float64, above, below string) string {
	label := below
	if v > threshold {
		label = above
	}
	if math.Abs(v) < threshold {
		label = "neutral"
	}
	if math.Abs(v) > veryThreshold {
		label = "very " + label
	}
	return label
}

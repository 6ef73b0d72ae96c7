package crossfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/bookshelf/internal/domain"
)

func TestLabel(t *testing.T) {
	schema := DefaultSchema()

	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{"year range", InRange(domain.AttrYear, 1960, 1970), "Year of Publication: 1960 to 1970"},
		{"single year", EqualsNumber(domain.AttrYear, 1965), "Year of Publication: 1965"},
		{"keyword is quoted", Contains(domain.AttrKeywords, "spice"), `keywords: "spice"`},
		{"book uses dimension label", Equals(domain.AttrGoodreadsID, "234225"), "Book: 234225"},
		{"planet", Contains(domain.AttrPlanet, "Mars"), "Planet: Mars"},
		{"unknown attribute falls back to its name", Contains("Publisher", "Ace"), "Publisher: Ace"},
		{
			"sentiment box",
			Within(domain.AttrSentiment, Point{X: 0.3, Y: 0.8}, Point{X: -0.1, Y: 0.2}),
			"polarity, subjectivity: neutral, neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(schema, tt.filter))
		})
	}
}

func TestSentimentLabel(t *testing.T) {
	tests := []struct {
		p    Point
		want string
	}{
		{Point{X: 0, Y: 0.5}, "neutral, neutral"},
		{Point{X: 0.2, Y: 0.75}, "positive, subjective"},
		{Point{X: 0.6, Y: 0.9}, "very positive, very subjective"},
		{Point{X: -0.3, Y: 0.25}, "negative, objective"},
		{Point{X: -0.5, Y: 0.1}, "very negative, very objective"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, SentimentLabel(tt.p))
		})
	}
}

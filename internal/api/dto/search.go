package dto

// SearchQuery holds the query parameters of GET /search.
type SearchQuery struct {
	Q       string `query:"q" validate:"max=256"`
	Limit   int    `query:"limit" validate:"gte=0,lte=100"`
	Offset  int    `query:"offset" validate:"gte=0"`
	MinYear int    `query:"min_year" validate:"gte=0"`
	MaxYear int    `query:"max_year" validate:"gte=0"`
}

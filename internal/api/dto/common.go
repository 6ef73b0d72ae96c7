// Package dto provides request and response types for the bookshelf API.
package dto

// ListResponse wraps a list with its size before truncation.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse builds a list response; a nil slice encodes as [].
func NewListResponse[T any](items []T, total int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: total}
}

// LimitQuery bounds list endpoints. Zero means the view default.
type LimitQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

// BooksQuery selects between the whole dataset and the current selection.
type BooksQuery struct {
	Selected bool `query:"selected"`
}

// MessageResponse is a simple success message response.
type MessageResponse struct {
	Message string `json:"message"`
}

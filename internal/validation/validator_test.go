package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/validation"
)

type span struct {
	Min float64 `json:"min"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

type testRequest struct {
	Range *span  `json:"range,omitempty" validate:"required_if=Op range"`
	Attr  string `json:"attr" validate:"required,max=16"`
	Op    string `json:"op" validate:"required,oneof=equals range"`
	Limit int    `query:"limit" validate:"gte=0,lte=100"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(testRequest{Attr: "Planet", Op: "equals"}))
	assert.NoError(t, v.Validate(testRequest{Attr: "Year", Op: "range", Range: &span{Min: 1960, Max: 1970}}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
		wantMsg   string
	}{
		{"missing attr", testRequest{Op: "equals"}, "attr", "is required"},
		{"attr too long", testRequest{Attr: "Year of Publication", Op: "equals"}, "attr", "must not exceed 16 characters"},
		{"unknown op", testRequest{Attr: "Planet", Op: "like"}, "op", "must be one of: equals range"},
		{"range missing", testRequest{Attr: "Year", Op: "range"}, "range", "is required when op is range"},
		{"inverted range", testRequest{Attr: "Year", Op: "range", Range: &span{Min: 1970, Max: 1960}}, "range.max", "must be greater than or equal to min"},
		{"limit too large", testRequest{Attr: "Planet", Op: "equals", Limit: 500}, "limit", "must be less than or equal to 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField], "details: %v", details)
		})
	}
}

func TestValidator_NonStruct(t *testing.T) {
	err := validation.New().Validate("not a struct")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

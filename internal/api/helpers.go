package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
)

// decodeJSON reads a size-limited JSON body into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domainerrors.Validationf("request body exceeds %d bytes", maxErr.Limit)
		}
		return domainerrors.Validation("invalid JSON body").WithCause(err)
	}
	return s.validator.Validate(v)
}

// parseLimit reads ?limit=. Absent means DefaultListLimit; 0 means no limit.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainerrors.ValidationWithDetails("invalid query", map[string]string{"limit": "must be an integer"})
	}
	q := dto.LimitQuery{Limit: n}
	if err := s.validator.Validate(q); err != nil {
		return 0, err
	}
	return q.Limit, nil
}

// parseBool reads a boolean query parameter; absent is false.
func parseBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domainerrors.ValidationWithDetails("invalid query", map[string]string{name: "must be true or false"})
	}
	return v, nil
}

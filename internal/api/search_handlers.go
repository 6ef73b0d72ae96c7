package api

import (
	"net/http"
	"strconv"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/http/response"
	"github.com/listenupapp/bookshelf/internal/search"
)

// handleSearch runs a full-text query over titles, authors, summaries and
// keywords. Each hit reports whether the book is in the current selection.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseSearchQuery(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	res, err := s.opts.Search.Search(r.Context(), search.Params{
		Query:   q.Q,
		MinYear: q.MinYear,
		MaxYear: q.MaxYear,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		response.HandleError(w, domainerrors.Internal("search failed").WithCause(err), s.logger)
		return
	}

	s.dashboard.MarkSelected(res.Hits)
	response.Success(w, res, s.logger)
}

func (s *Server) parseSearchQuery(r *http.Request) (dto.SearchQuery, error) {
	values := r.URL.Query()
	q := dto.SearchQuery{Q: values.Get("q")}

	details := map[string]string{}
	for name, dst := range map[string]*int{
		"limit":    &q.Limit,
		"offset":   &q.Offset,
		"min_year": &q.MinYear,
		"max_year": &q.MaxYear,
	} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details[name] = "must be an integer"
			continue
		}
		*dst = n
	}
	if len(details) > 0 {
		return q, domainerrors.ValidationWithDetails("invalid query", details)
	}
	return q, s.validator.Validate(q)
}

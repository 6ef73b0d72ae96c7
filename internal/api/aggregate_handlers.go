package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	domainerrors "github.com/listenupapp/bookshelf/internal/errors"
	"github.com/listenupapp/bookshelf/internal/http/response"
)

func (s *Server) handleYearHistogram(w http.ResponseWriter, _ *http.Request) {
	hist := s.dashboard.YearHistogram()
	response.Success(w, dto.NewListResponse(hist, len(hist)), s.logger)
}

// handleCategoryCounts serves /aggregates/categories/{attr}. Attribute names
// contain spaces, so the path segment is unescaped first.
func (s *Server) handleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	attr, err := url.PathUnescape(chi.URLParam(r, "attr"))
	if err != nil {
		response.HandleError(w, domainerrors.Validationf("invalid attribute %q", chi.URLParam(r, "attr")), s.logger)
		return
	}
	limit, err := s.parseLimit(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	counts, total, err := s.dashboard.Categories(attr, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, dto.NewListResponse(counts, total), s.logger)
}

func (s *Server) handleKeywordFrequencies(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	counts, total := s.dashboard.Keywords(limit)
	response.Success(w, dto.NewListResponse(counts, total), s.logger)
}

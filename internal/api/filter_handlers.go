package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	"github.com/listenupapp/bookshelf/internal/http/response"
)

// RemovedResponse reports how many filters a bulk removal revoked.
type RemovedResponse struct {
	Removed int `json:"removed"`
}

func (s *Server) handleListFilters(w http.ResponseWriter, _ *http.Request) {
	items := s.dashboard.Filters()
	response.Success(w, dto.NewListResponse(items, len(items)), s.logger)
}

// handleAddFilter applies a filter. Duplicates answer 409, descriptors the
// schema rejects answer 400.
func (s *Server) handleAddFilter(w http.ResponseWriter, r *http.Request) {
	var req dto.FilterRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	item, err := s.dashboard.AddFilter(req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, item, s.logger)
}

func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.RemoveFilter(chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleRemoveFiltersByAttr serves DELETE /filters?attr=Planet.
func (s *Server) handleRemoveFiltersByAttr(w http.ResponseWriter, r *http.Request) {
	attr := r.URL.Query().Get("attr")
	if attr == "" {
		response.BadRequest(w, "attr query parameter is required", s.logger)
		return
	}

	n, err := s.dashboard.RemoveFiltersByAttr(attr)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, RemovedResponse{Removed: n}, s.logger)
}

// handleUndoFilter revokes the most recently added filter. With nothing to
// undo it answers 204.
func (s *Server) handleUndoFilter(w http.ResponseWriter, _ *http.Request) {
	item, ok, err := s.dashboard.Undo()
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if !ok {
		response.NoContent(w)
		return
	}
	response.Success(w, item, s.logger)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, _ *http.Request) {
	n, err := s.dashboard.ClearFilters()
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, RemovedResponse{Removed: n}, s.logger)
}

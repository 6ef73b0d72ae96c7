package api

import (
	"net/http"

	"github.com/listenupapp/bookshelf/internal/api/dto"
	"github.com/listenupapp/bookshelf/internal/http/response"
)

// handleListBooks returns the whole dataset, or with ?selected=true only
// the books that satisfy every active filter.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	selected, err := parseBool(r, "selected")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	q := dto.BooksQuery{Selected: selected}

	books := s.dashboard.Books(q.Selected)
	response.Success(w, dto.NewListResponse(books, len(books)), s.logger)
}

// handleGetDashboard returns every panel at the current engine version.
func (s *Server) handleGetDashboard(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.dashboard.Current(), s.logger)
}

// handleListEvents returns the timeline events within the selection's year range.
func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.dashboard.Events()
	response.Success(w, dto.NewListResponse(events, len(events)), s.logger)
}

package api

import (
	"net/http"

	"github.com/listenupapp/bookshelf/internal/http/response"
)

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status  string `json:"status"`
	Books   int    `json:"books"`
	Filters int    `json:"filters"`
	Version uint64 `json:"version"`
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Books:   len(s.dashboard.Books(false)),
		Filters: len(s.dashboard.Filters()),
		Version: s.dashboard.Version(),
	}
	if resp.Books == 0 {
		resp.Status = "degraded"
	}
	response.Success(w, resp, s.logger)
}

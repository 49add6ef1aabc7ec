package handlers

import (
	"net/http"

	"notebook-ai/internal/service"
)

// StatsHandler reports embedding coverage for the calling user.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// ServeHTTP handles GET /api/stats. The response body is an indexer.CoverageStats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.statsService.Coverage(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

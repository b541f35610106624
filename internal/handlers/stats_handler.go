package handlers

import (
	"net/http"

	"sliptrack/internal/service"
)

// StatsHandler serves the global visitor counter
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Get handles GET /api/stats. The first call of a session counts it
// toward the total; later calls just read the counter.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	views, err := h.statsService.RecordVisit(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load stats", "record visit", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"views": views})
}

package leaderboardhandlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	leaderboardservice "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/application"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

// Handlers serves league standings and points history charts.
type Handlers struct {
	service leaderboardservice.Service
	logger  *slog.Logger
}

func NewHandlers(service leaderboardservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// GetStandings returns the current standings of a league ordered by rank.
func (h *Handlers) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "leagueID")
	if !ok {
		return
	}

	standings, err := h.service.GetStandings(r.Context(), leagueID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leagueId":  leagueID,
		"standings": standings,
	})
}

// RebuildStandings forces a full recompute of a league's standings. The
// event subscriber keeps standings current; this endpoint covers manual
// repair after direct data fixes.
func (h *Handlers) RebuildStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "leagueID")
	if !ok {
		return
	}

	ranked, err := h.service.RebuildStandings(r.Context(), leagueID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leagueId":    leagueID,
		"usersRanked": ranked,
	})
}

// GetPointsChart streams a PNG chart of one user's total points over time.
func (h *Handlers) GetPointsChart(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "leagueID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	png, err := h.service.PointsHistoryChart(r.Context(), leagueID, userID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Leaderboard request failed",
		attr.ExtractCorrelationID(r.Context()),
		attr.String("path", r.URL.Path),
		attr.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid %s", name),
		})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

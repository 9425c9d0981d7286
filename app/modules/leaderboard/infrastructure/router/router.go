package leaderboardrouter

import (
	"github.com/go-chi/chi/v5"

	leaderboardhandlers "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/handlers"
)

// Mount registers the leaderboard routes on the shared API subrouter.
func Mount(api chi.Router, h *leaderboardhandlers.Handlers) {
	api.Get("/leagues/{leagueID}/standings", h.GetStandings)
	api.Post("/leagues/{leagueID}/standings/rebuild", h.RebuildStandings)
	api.Get("/leagues/{leagueID}/users/{userID}/chart", h.GetPointsChart)
}

package evalrouter

import (
	"github.com/go-chi/chi/v5"

	evalhandlers "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/handlers"
	sharedmw "github.com/tipliga-club/tipliga-backend/app/shared/middleware"
)

// Mount registers the evaluation routes on the shared /api subrouter. The
// rate limiter guards the admin trigger endpoints; read endpoints stay
// unthrottled.
func Mount(api chi.Router, h *evalhandlers.Handlers, limiter *sharedmw.ClientRateLimiter) {
	api.Group(func(r chi.Router) {
		r.Use(sharedmw.RateLimit(limiter))

		r.Post("/matches/{matchID}/league-matches/{leagueMatchID}/evaluate", h.EvaluateMatch)
		r.Post("/series/{serieID}/evaluate", h.EvaluateSerie)
		r.Post("/special-bets/{specialBetID}/evaluate", h.EvaluateSpecialBet)
		r.Post("/questions/{questionID}/evaluate", h.EvaluateQuestion)

		r.Put("/matches/{matchID}/result", h.EnterMatchResult)
		r.Put("/series/{serieID}/result", h.EnterSerieResult)
		r.Put("/special-bets/{specialBetID}/result", h.EnterSpecialBetResult)
		r.Put("/questions/{questionID}/result", h.EnterQuestionResult)

		r.Post("/evaluators", h.CreateEvaluator)
	})

	api.Get("/leagues/{leagueID}/evaluators", h.ListEvaluators)
	api.Get("/evaluators/exclusions", h.GetExclusions)
	api.Get("/league-matches/{leagueMatchID}/report", h.DownloadReport)
}

package bettingrouter

import (
	"github.com/go-chi/chi/v5"

	bettinghandlers "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/handlers"
)

// Mount registers the betting routes on the shared /api subrouter.
func Mount(api chi.Router, h *bettinghandlers.Handlers) {
	api.Put("/league-matches/{leagueMatchID}/bet", h.PlaceMatchBet)
	api.Put("/series/{serieID}/bet", h.PlaceSerieBet)
	api.Put("/special-bets/{specialBetID}/bet", h.PlaceSpecialBet)
	api.Put("/questions/{questionID}/answer", h.AnswerQuestion)
}

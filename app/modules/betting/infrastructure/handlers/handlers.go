package bettinghandlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	bettingservice "github.com/tipliga-club/tipliga-backend/app/modules/betting/application"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

// Handlers exposes bet placement over HTTP.
type Handlers struct {
	service bettingservice.Service
	logger  *slog.Logger
}

// NewHandlers creates the betting HTTP handlers.
func NewHandlers(service bettingservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// PlaceMatchBet stores a match prediction.
func (h *Handlers) PlaceMatchBet(w http.ResponseWriter, r *http.Request) {
	leagueMatchID, ok := pathID(w, r, "leagueMatchID")
	if !ok {
		return
	}

	var input bettingservice.MatchBetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	input.LeagueMatchID = leagueMatchID

	result, err := h.service.PlaceMatchBet(r.Context(), input)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeBetResult(w, result)
}

// PlaceSerieBet stores a series prediction.
func (h *Handlers) PlaceSerieBet(w http.ResponseWriter, r *http.Request) {
	serieID, ok := pathID(w, r, "serieID")
	if !ok {
		return
	}

	var input bettingservice.SerieBetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	input.SerieID = serieID

	result, err := h.service.PlaceSerieBet(r.Context(), input)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeBetResult(w, result)
}

// PlaceSpecialBet stores a special bet prediction.
func (h *Handlers) PlaceSpecialBet(w http.ResponseWriter, r *http.Request) {
	specialBetID, ok := pathID(w, r, "specialBetID")
	if !ok {
		return
	}

	var input bettingservice.SpecialBetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	input.SpecialBetID = specialBetID

	result, err := h.service.PlaceSpecialBet(r.Context(), input)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeBetResult(w, result)
}

// AnswerQuestion stores a trivia answer.
func (h *Handlers) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	var input bettingservice.AnswerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	input.QuestionID = questionID
	if input.Answer == "" {
		http.Error(w, "answer must not be empty", http.StatusBadRequest)
		return
	}

	result, err := h.service.AnswerQuestion(r.Context(), input)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeBetResult(w, result)
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Request failed",
		attr.ExtractCorrelationID(r.Context()),
		attr.String("path", r.URL.Path),
		attr.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeBetResult(w http.ResponseWriter, result bettingservice.BetOperationResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.IsFailure() {
		status := http.StatusUnprocessableEntity
		switch result.Failure.Reason {
		case bettingservice.ReasonNotFound:
			status = http.StatusNotFound
		case bettingservice.ReasonBettingClosed:
			status = http.StatusConflict
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(result.Failure)
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result.Success)
}

package evalhandlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	evalservice "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/application"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	sharedmw "github.com/tipliga-club/tipliga-backend/app/shared/middleware"
)

// Handlers exposes the evaluation core over HTTP. Every mutating endpoint is
// admin-triggered; the acting admin comes from the gateway-authenticated
// header and feeds the audit trail.
type Handlers struct {
	service evalservice.Service
	logger  *slog.Logger
}

// NewHandlers creates the evaluation HTTP handlers.
func NewHandlers(service evalservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

type evaluateMatchRequest struct {
	UserID *int64 `json:"userId,omitempty"`
}

// EvaluateMatch triggers evaluation of one league match.
func (h *Handlers) EvaluateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	leagueMatchID, ok := pathID(w, r, "leagueMatchID")
	if !ok {
		return
	}

	var req evaluateMatchRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	result, err := h.service.EvaluateMatch(r.Context(), matchID, leagueMatchID, req.UserID, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeEvaluationResult(w, result)
}

// EvaluateSerie triggers evaluation of one series.
func (h *Handlers) EvaluateSerie(w http.ResponseWriter, r *http.Request) {
	serieID, ok := pathID(w, r, "serieID")
	if !ok {
		return
	}

	var req evaluateMatchRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	result, err := h.service.EvaluateSerie(r.Context(), serieID, req.UserID, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeEvaluationResult(w, result)
}

// EvaluateSpecialBet triggers evaluation of one special bet.
func (h *Handlers) EvaluateSpecialBet(w http.ResponseWriter, r *http.Request) {
	specialBetID, ok := pathID(w, r, "specialBetID")
	if !ok {
		return
	}

	result, err := h.service.EvaluateSpecialBet(r.Context(), specialBetID, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeEvaluationResult(w, result)
}

// EvaluateQuestion triggers evaluation of one trivia question.
func (h *Handlers) EvaluateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	result, err := h.service.EvaluateQuestion(r.Context(), questionID, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeEvaluationResult(w, result)
}

type matchResultRequest struct {
	HomeScore int                       `json:"homeScore"`
	AwayScore int                       `json:"awayScore"`
	Overtime  bool                      `json:"overtime"`
	Scorers   []evalservice.ScorerGoals `json:"scorers,omitempty"`
}

// EnterMatchResult stores a match's final result.
func (h *Handlers) EnterMatchResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}

	var req matchResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.EnterMatchResult(r.Context(), matchID, req.HomeScore, req.AwayScore, req.Overtime, req.Scorers, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeResultEntry(w, result)
}

type serieResultRequest struct {
	HomeWins int `json:"homeWins"`
	AwayWins int `json:"awayWins"`
}

// EnterSerieResult stores a series' aggregate result.
func (h *Handlers) EnterSerieResult(w http.ResponseWriter, r *http.Request) {
	serieID, ok := pathID(w, r, "serieID")
	if !ok {
		return
	}

	var req serieResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.EnterSerieResult(r.Context(), serieID, req.HomeWins, req.AwayWins, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeResultEntry(w, result)
}

// EnterSpecialBetResult stores a special bet's actual outcome.
func (h *Handlers) EnterSpecialBetResult(w http.ResponseWriter, r *http.Request) {
	specialBetID, ok := pathID(w, r, "specialBetID")
	if !ok {
		return
	}

	var input evalservice.SpecialBetResultInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	input.SpecialBetID = specialBetID

	result, err := h.service.EnterSpecialBetResult(r.Context(), input, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeResultEntry(w, result)
}

type questionResultRequest struct {
	CorrectAnswer string `json:"correctAnswer"`
}

// EnterQuestionResult stores a question's correct answer.
func (h *Handlers) EnterQuestionResult(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}

	var req questionResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.CorrectAnswer == "" {
		http.Error(w, "correctAnswer must not be empty", http.StatusBadRequest)
		return
	}

	result, err := h.service.EnterQuestionResult(r.Context(), questionID, req.CorrectAnswer, sharedmw.AdminUser(r))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeResultEntry(w, result)
}

// CreateEvaluator stores a new evaluator definition.
func (h *Handlers) CreateEvaluator(w http.ResponseWriter, r *http.Request) {
	var input evalservice.CreateEvaluatorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.CreateEvaluator(r.Context(), input)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if result.IsFailure() {
		writeJSON(w, http.StatusBadRequest, result.Failure)
		return
	}
	writeJSON(w, http.StatusCreated, result.Success)
}

// ListEvaluators returns every evaluator configured for a league.
func (h *Handlers) ListEvaluators(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "leagueID")
	if !ok {
		return
	}

	views, err := h.service.ListEvaluators(r.Context(), leagueID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetExclusions returns the static suppression table.
func (h *Handlers) GetExclusions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ExclusionTable())
}

// DownloadReport streams the XLSX evaluation report for one league match.
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	leagueMatchID, ok := pathID(w, r, "leagueMatchID")
	if !ok {
		return
	}

	data, err := h.service.MatchEvaluationReport(r.Context(), leagueMatchID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="evaluation-%d.xlsx"`, leagueMatchID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to stream report",
			attr.ExtractCorrelationID(r.Context()),
			attr.Error(err),
		)
	}
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

// decodeOptionalBody decodes an optional JSON body; an empty body is fine.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvaluationResult(w http.ResponseWriter, result evalservice.EvaluationOperationResult) {
	if result.IsFailure() {
		writeJSON(w, failureStatus(result.Failure.Reason), result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func writeResultEntry(w http.ResponseWriter, result evalservice.ResultOperationResult) {
	if result.IsFailure() {
		writeJSON(w, failureStatus(result.Failure.Reason), result.Failure)
		return
	}
	writeJSON(w, http.StatusOK, result.Success)
}

func failureStatus(reason evalservice.ReasonCode) int {
	switch reason {
	case evalservice.ReasonNotFound:
		return http.StatusNotFound
	case evalservice.ReasonAlreadyEvaluated:
		return http.StatusConflict
	case evalservice.ReasonMissingResult, evalservice.ReasonNoEvaluators:
		return http.StatusUnprocessableEntity
	case evalservice.ReasonInvalidConfig:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

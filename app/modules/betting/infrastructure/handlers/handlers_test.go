package bettinghandlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	bettingservice "github.com/tipliga-club/tipliga-backend/app/modules/betting/application"
	bettinghandlers "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/handlers"
	bettingrouter "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/router"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

type fakeService struct {
	result bettingservice.BetOperationResult

	lastMatchInput  *bettingservice.MatchBetInput
	lastAnswerInput *bettingservice.AnswerInput
}

var _ bettingservice.Service = (*fakeService)(nil)

func (f *fakeService) PlaceMatchBet(_ context.Context, input bettingservice.MatchBetInput) (bettingservice.BetOperationResult, error) {
	f.lastMatchInput = &input
	return f.result, nil
}

func (f *fakeService) PlaceSerieBet(_ context.Context, input bettingservice.SerieBetInput) (bettingservice.BetOperationResult, error) {
	return f.result, nil
}

func (f *fakeService) PlaceSpecialBet(_ context.Context, input bettingservice.SpecialBetInput) (bettingservice.BetOperationResult, error) {
	return f.result, nil
}

func (f *fakeService) AnswerQuestion(_ context.Context, input bettingservice.AnswerInput) (bettingservice.BetOperationResult, error) {
	f.lastAnswerInput = &input
	return f.result, nil
}

func placedResult(entity string, eventID int64) bettingservice.BetOperationResult {
	return results.OK[bettingservice.BetPlacedPayload, bettingservice.BetFailedPayload](bettingservice.BetPlacedPayload{
		Entity:  entity,
		EventID: eventID,
	})
}

func failedResult(reason bettingservice.ReasonCode) bettingservice.BetOperationResult {
	return results.Fail[bettingservice.BetPlacedPayload, bettingservice.BetFailedPayload](bettingservice.BetFailedPayload{
		Reason: reason,
	})
}

func newTestRouter(svc bettingservice.Service) http.Handler {
	r := chi.NewRouter()
	api := chi.NewRouter()
	bettingrouter.Mount(api, bettinghandlers.NewHandlers(svc, observability.NoOpLogger))
	r.Mount("/api", api)
	return r
}

func TestPlaceMatchBet(t *testing.T) {
	svc := &fakeService{result: placedResult("match", 20)}
	router := newTestRouter(svc)

	body := strings.NewReader(`{"userId":101,"homeScore":2,"awayScore":1}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/league-matches/20/bet", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastMatchInput)
	require.Equal(t, int64(20), svc.lastMatchInput.LeagueMatchID)
	require.Equal(t, int64(101), svc.lastMatchInput.UserID)
	require.Equal(t, 2, *svc.lastMatchInput.HomeScore)
}

func TestPlaceMatchBetInvalidID(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/league-matches/0/bet", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceMatchBetFailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		reason bettingservice.ReasonCode
		want   int
	}{
		{"not found", bettingservice.ReasonNotFound, http.StatusNotFound},
		{"betting closed", bettingservice.ReasonBettingClosed, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{result: failedResult(tt.reason)})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/league-matches/20/bet", strings.NewReader(`{"userId":1}`)))

			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAnswerQuestionRejectsEmptyAnswer(t *testing.T) {
	svc := &fakeService{result: placedResult("question", 50)}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/questions/50/answer", strings.NewReader(`{"userId":1,"answer":""}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, svc.lastAnswerInput)
}

func TestAnswerQuestion(t *testing.T) {
	svc := &fakeService{result: placedResult("question", 50)}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/questions/50/answer", strings.NewReader(`{"userId":1,"answer":"Messi"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastAnswerInput)
	require.Equal(t, int64(50), svc.lastAnswerInput.QuestionID)
	require.Equal(t, "Messi", svc.lastAnswerInput.Answer)
}

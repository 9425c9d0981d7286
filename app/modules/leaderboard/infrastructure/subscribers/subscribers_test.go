package leaderboardsubscribers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	leaderboardservice "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/application"
	sharedevents "github.com/tipliga-club/tipliga-backend/app/shared/events"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
)

type fakeService struct {
	rebuiltLeagues []int64
	failWith       error
}

var _ leaderboardservice.Service = (*fakeService)(nil)

func (f *fakeService) RebuildStandings(_ context.Context, leagueID int64) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.rebuiltLeagues = append(f.rebuiltLeagues, leagueID)
	return 1, nil
}

func (f *fakeService) GetStandings(context.Context, int64) ([]leaderboardservice.StandingView, error) {
	return nil, nil
}

func (f *fakeService) PointsHistoryChart(context.Context, int64, int64) ([]byte, error) {
	return nil, nil
}

func newEvaluationMessage(t *testing.T, payload sharedevents.EvaluationCompletedPayloadV1) *message.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), data)
}

func TestHandleRebuildsAndAcks(t *testing.T) {
	svc := &fakeService{}
	sub := NewEvaluationSubscriber(nil, svc, observability.NoOpLogger)

	msg := newEvaluationMessage(t, sharedevents.EvaluationCompletedPayloadV1{
		Entity:   "match",
		EventID:  20,
		LeagueID: 1,
	})
	sub.handle(context.Background(), msg)

	require.Equal(t, []int64{1}, svc.rebuiltLeagues)
	select {
	case <-msg.Acked():
	default:
		t.Fatal("expected message to be acked")
	}
}

func TestHandleNacksOnRebuildError(t *testing.T) {
	svc := &fakeService{failWith: errors.New("db down")}
	sub := NewEvaluationSubscriber(nil, svc, observability.NoOpLogger)

	msg := newEvaluationMessage(t, sharedevents.EvaluationCompletedPayloadV1{LeagueID: 1})
	sub.handle(context.Background(), msg)

	select {
	case <-msg.Nacked():
	default:
		t.Fatal("expected message to be nacked")
	}
}

func TestHandleAcksMalformedPayload(t *testing.T) {
	svc := &fakeService{}
	sub := NewEvaluationSubscriber(nil, svc, observability.NoOpLogger)

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	sub.handle(context.Background(), msg)

	require.Empty(t, svc.rebuiltLeagues)
	select {
	case <-msg.Acked():
	default:
		t.Fatal("expected malformed message to be acked")
	}
}

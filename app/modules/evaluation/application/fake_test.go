package evalservice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
)

var errForced = errors.New("storage unavailable")

// fakeRepo is an in-memory Repository. Each table is a slice or map keyed
// by ID; forcedErr short-circuits every call when set.
type fakeRepo struct {
	evaluators []evaldb.Evaluator

	matches       map[int64]*evaldb.Match
	leagueMatches map[int64]*evaldb.LeagueMatch
	matchScorers  []evaldb.MatchScorer
	userBets      []evaldb.UserBet

	series    map[int64]*evaldb.Serie
	serieBets []evaldb.UserSerieBet

	specialBets    map[int64]*evaldb.SpecialBet
	userSpecials   []evaldb.UserSpecialBet
	questions      map[int64]*evaldb.Question
	userAnswers    []evaldb.UserAnswer

	scorerRanks map[int64]int

	pointsByBet  map[int64]int
	evaluatedSet map[string]bool

	forcedErr error
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		matches:       map[int64]*evaldb.Match{},
		leagueMatches: map[int64]*evaldb.LeagueMatch{},
		series:        map[int64]*evaldb.Serie{},
		specialBets:   map[int64]*evaldb.SpecialBet{},
		questions:     map[int64]*evaldb.Question{},
		scorerRanks:   map[int64]int{},
		pointsByBet:   map[int64]int{},
		evaluatedSet:  map[string]bool{},
		nextID:        1000,
	}
}

var _ evaldb.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) InsertEvaluator(_ context.Context, _ bun.IDB, ev *evaldb.Evaluator) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.nextID++
	ev.ID = f.nextID
	f.evaluators = append(f.evaluators, *ev)
	return nil
}

func (f *fakeRepo) GetLeagueEvaluators(_ context.Context, _ bun.IDB, leagueID int64, entity string) ([]evaldb.Evaluator, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.Evaluator
	for _, ev := range f.evaluators {
		if ev.LeagueID == leagueID && ev.Entity == entity {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLeagueEvaluators(_ context.Context, _ bun.IDB, leagueID int64) ([]evaldb.Evaluator, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.Evaluator
	for _, ev := range f.evaluators {
		if ev.LeagueID == leagueID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetMatch(_ context.Context, _ bun.IDB, matchID int64) (*evaldb.Match, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, evaldb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) GetLeagueMatch(_ context.Context, _ bun.IDB, leagueMatchID int64) (*evaldb.LeagueMatch, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	lm, ok := f.leagueMatches[leagueMatchID]
	if !ok {
		return nil, evaldb.ErrNotFound
	}
	cp := *lm
	return &cp, nil
}

func (f *fakeRepo) GetMatchScorers(_ context.Context, _ bun.IDB, matchID int64) ([]evaldb.MatchScorer, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.MatchScorer
	for _, ms := range f.matchScorers {
		if ms.MatchID == matchID {
			out = append(out, ms)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetUserBets(_ context.Context, _ bun.IDB, leagueMatchID int64, userID *int64) ([]evaldb.UserBet, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.UserBet
	for _, b := range f.userBets {
		if b.LeagueMatchID != leagueMatchID || b.DeletedAt != nil {
			continue
		}
		if userID != nil && b.UserID != *userID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) UpdateUserBetPoints(_ context.Context, _ bun.IDB, betID int64, totalPoints int) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.pointsByBet[betID] = totalPoints
	return nil
}

func (f *fakeRepo) SetLeagueMatchEvaluated(_ context.Context, _ bun.IDB, leagueMatchID int64, evaluated bool) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.leagueMatches[leagueMatchID].IsEvaluated = evaluated
	f.evaluatedSet["league_match"] = evaluated
	return nil
}

func (f *fakeRepo) SetMatchResult(_ context.Context, _ bun.IDB, matchID int64, homeScore, awayScore int, overtime bool, scorers []evaldb.MatchScorer) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	m, ok := f.matches[matchID]
	if !ok {
		return evaldb.ErrNotFound
	}
	m.HomeRegularScore = &homeScore
	m.AwayRegularScore = &awayScore
	m.Overtime = overtime
	kept := f.matchScorers[:0]
	for _, ms := range f.matchScorers {
		if ms.MatchID != matchID {
			kept = append(kept, ms)
		}
	}
	f.matchScorers = append(kept, scorers...)
	return nil
}

func (f *fakeRepo) ResetLeagueMatchEvaluations(_ context.Context, _ bun.IDB, matchID int64) (int, error) {
	if f.forcedErr != nil {
		return 0, f.forcedErr
	}
	reopened := 0
	for _, lm := range f.leagueMatches {
		if lm.MatchID == matchID && lm.IsEvaluated {
			lm.IsEvaluated = false
			reopened++
		}
	}
	return reopened, nil
}

func (f *fakeRepo) ScorerRanks(_ context.Context, _ bun.IDB, _ int64, _ time.Time) (map[int64]int, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	out := make(map[int64]int, len(f.scorerRanks))
	for k, v := range f.scorerRanks {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRepo) GetSerie(_ context.Context, _ bun.IDB, serieID int64) (*evaldb.Serie, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	s, ok := f.series[serieID]
	if !ok {
		return nil, evaldb.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) GetUserSerieBets(_ context.Context, _ bun.IDB, serieID int64, userID *int64) ([]evaldb.UserSerieBet, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.UserSerieBet
	for _, b := range f.serieBets {
		if b.SerieID != serieID || b.DeletedAt != nil {
			continue
		}
		if userID != nil && b.UserID != *userID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) UpdateUserSerieBetPoints(_ context.Context, _ bun.IDB, betID int64, totalPoints int) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.pointsByBet[betID] = totalPoints
	return nil
}

func (f *fakeRepo) SetSerieEvaluated(_ context.Context, _ bun.IDB, serieID int64, evaluated bool) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.series[serieID].IsEvaluated = evaluated
	return nil
}

func (f *fakeRepo) SetSerieResult(_ context.Context, _ bun.IDB, serieID int64, homeWins, awayWins int) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	s, ok := f.series[serieID]
	if !ok {
		return evaldb.ErrNotFound
	}
	s.HomeWins = &homeWins
	s.AwayWins = &awayWins
	s.IsEvaluated = false
	return nil
}

func (f *fakeRepo) GetSpecialBet(_ context.Context, _ bun.IDB, specialBetID int64) (*evaldb.SpecialBet, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	sb, ok := f.specialBets[specialBetID]
	if !ok {
		return nil, evaldb.ErrNotFound
	}
	cp := *sb
	return &cp, nil
}

func (f *fakeRepo) GetUserSpecialBets(_ context.Context, _ bun.IDB, specialBetID int64) ([]evaldb.UserSpecialBet, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.UserSpecialBet
	for _, b := range f.userSpecials {
		if b.SpecialBetID == specialBetID && b.DeletedAt == nil {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateUserSpecialBetPoints(_ context.Context, _ bun.IDB, betID int64, totalPoints int) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.pointsByBet[betID] = totalPoints
	return nil
}

func (f *fakeRepo) SetSpecialBetEvaluated(_ context.Context, _ bun.IDB, specialBetID int64, evaluated bool) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.specialBets[specialBetID].IsEvaluated = evaluated
	return nil
}

func (f *fakeRepo) SetSpecialBetResult(_ context.Context, _ bun.IDB, bet *evaldb.SpecialBet) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	stored, ok := f.specialBets[bet.ID]
	if !ok {
		return evaldb.ErrNotFound
	}
	*stored = *bet
	stored.IsEvaluated = false
	return nil
}

func (f *fakeRepo) GetQuestion(_ context.Context, _ bun.IDB, questionID int64) (*evaldb.Question, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	q, ok := f.questions[questionID]
	if !ok {
		return nil, evaldb.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeRepo) SetQuestionResult(_ context.Context, _ bun.IDB, questionID int64, correctAnswer string) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	q, ok := f.questions[questionID]
	if !ok {
		return evaldb.ErrNotFound
	}
	q.CorrectAnswer = &correctAnswer
	q.IsEvaluated = false
	return nil
}

func (f *fakeRepo) GetUserAnswers(_ context.Context, _ bun.IDB, questionID int64) ([]evaldb.UserAnswer, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []evaldb.UserAnswer
	for _, a := range f.userAnswers {
		if a.QuestionID == questionID && a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateUserAnswerPoints(_ context.Context, _ bun.IDB, answerID int64, totalPoints int) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.pointsByBet[answerID] = totalPoints
	return nil
}

func (f *fakeRepo) SetQuestionEvaluated(_ context.Context, _ bun.IDB, questionID int64, evaluated bool) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.questions[questionID].IsEvaluated = evaluated
	return nil
}

// fakeBus records every publish.
type fakeBus struct {
	mu        sync.Mutex
	published []publishedEvent
	failWith  error
}

type publishedEvent struct {
	topic   string
	payload any
}

func (b *fakeBus) Publish(_ context.Context, topic string, payload any) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.topic
	}
	return out
}

// newTestService wires the service against in-memory fakes. db stays nil, so
// repository calls run outside any transaction.
func newTestService(repo *fakeRepo, bus *fakeBus) *EvaluationService {
	return NewEvaluationService(
		repo,
		bus,
		observability.NoOpLogger,
		NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
}

func ptr[T any](v T) *T { return &v }

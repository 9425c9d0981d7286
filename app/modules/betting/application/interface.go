package bettingservice

import "context"

// Service is the bet placement surface. Every operation upserts, so users can
// revise a prediction freely until the deadline passes.
type Service interface {
	PlaceMatchBet(ctx context.Context, input MatchBetInput) (BetOperationResult, error)
	PlaceSerieBet(ctx context.Context, input SerieBetInput) (BetOperationResult, error)
	PlaceSpecialBet(ctx context.Context, input SpecialBetInput) (BetOperationResult, error)
	AnswerQuestion(ctx context.Context, input AnswerInput) (BetOperationResult, error)
}

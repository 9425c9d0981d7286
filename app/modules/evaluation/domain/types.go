package evaldomain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EntityClass is the category of event an evaluator applies to.
type EntityClass string

const (
	EntityMatch    EntityClass = "match"
	EntitySeries   EntityClass = "series"
	EntitySpecial  EntityClass = "special"
	EntityQuestion EntityClass = "question"
)

// EvaluatorType is the closed set of scoring rule names. The dispatcher in
// rules.go switches exhaustively over these; anything else is an unknown type
// and evaluates to a zero-point skip rather than an error for the whole run.
type EvaluatorType string

const (
	TypeExactScore        EvaluatorType = "exact_score"
	TypeWinner            EvaluatorType = "winner"
	TypeScoreDifference   EvaluatorType = "score_difference"
	TypeOneTeamScore      EvaluatorType = "one_team_score"
	TypeDraw              EvaluatorType = "draw"
	TypeScorer            EvaluatorType = "scorer"
	TypeSerieWinner       EvaluatorType = "serie_winner"
	TypeSerieExactScore   EvaluatorType = "serie_exact_score"
	TypeExactTeam         EvaluatorType = "exact_team"
	TypeExactPlayer       EvaluatorType = "exact_player"
	TypeExactValue        EvaluatorType = "exact_value"
	TypeClosestValue      EvaluatorType = "closest_value"
	TypeGroupStageAdvance EvaluatorType = "group_stage_advance"
	TypeExactAnswer       EvaluatorType = "exact_answer"
)

// entityByType maps every known evaluator type to the single entity class it
// scores.
var entityByType = map[EvaluatorType]EntityClass{
	TypeExactScore:        EntityMatch,
	TypeWinner:            EntityMatch,
	TypeScoreDifference:   EntityMatch,
	TypeOneTeamScore:      EntityMatch,
	TypeDraw:              EntityMatch,
	TypeScorer:            EntityMatch,
	TypeSerieWinner:       EntitySeries,
	TypeSerieExactScore:   EntitySeries,
	TypeExactTeam:         EntitySpecial,
	TypeExactPlayer:       EntitySpecial,
	TypeExactValue:        EntitySpecial,
	TypeClosestValue:      EntitySpecial,
	TypeGroupStageAdvance: EntitySpecial,
	TypeExactAnswer:       EntityQuestion,
}

// Entity returns the entity class the type belongs to.
func (t EvaluatorType) Entity() (EntityClass, bool) {
	e, ok := entityByType[t]
	return e, ok
}

// Known reports whether t is a member of the closed evaluator set.
func (t EvaluatorType) Known() bool {
	_, ok := entityByType[t]
	return ok
}

// KnownTypes returns all registered evaluator types. Order is unspecified.
func KnownTypes() []EvaluatorType {
	out := make([]EvaluatorType, 0, len(entityByType))
	for t := range entityByType {
		out = append(out, t)
	}
	return out
}

// Evaluator is a configured scoring rule instance attached to a league.
type Evaluator struct {
	ID       int64
	LeagueID int64
	Type     EvaluatorType
	Entity   EntityClass
	Points   int
	Config   Config
}

// RankedScorerConfig maps a scorer's tournament rank at event time to a point
// value, with a fallback for unranked players.
type RankedScorerConfig struct {
	RankedPoints   map[int]int `json:"rankedPoints"`
	UnrankedPoints int         `json:"unrankedPoints"`
}

// PositionFilterConfig restricts which player positions are selectable for an
// exact_player bet. Scoring only compares IDs; the filter is enforced by the
// bet-placement layer.
type PositionFilterConfig struct {
	Positions []string `json:"positions"`
}

// GroupStageConfig holds the tiered points for group-stage outcomes. The
// parser guarantees WinnerPoints > AdvancePoints.
type GroupStageConfig struct {
	WinnerPoints  int `json:"winnerPoints"`
	AdvancePoints int `json:"advancePoints"`
}

// Config is the discriminated evaluator configuration. At most one variant is
// set; which one is legal depends on the evaluator type and is enforced by
// ParseConfig at evaluator-creation time.
type Config struct {
	RankedScorer   *RankedScorerConfig
	PositionFilter *PositionFilterConfig
	GroupStage     *GroupStageConfig
}

// IsZero reports whether no config variant is set.
func (c Config) IsZero() bool {
	return c.RankedScorer == nil && c.PositionFilter == nil && c.GroupStage == nil
}

var (
	// ErrUnknownEvaluator marks an evaluator type outside the closed set.
	ErrUnknownEvaluator = errors.New("unknown evaluator type")
	// ErrMissingConfig marks an evaluator whose type requires a config blob.
	ErrMissingConfig = errors.New("evaluator config required")
)

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseConfig validates and decodes the JSON config blob for the given
// evaluator type. It is the single place config shapes are checked; the rule
// library assumes any Config it sees came through here.
func ParseConfig(t EvaluatorType, raw []byte) (Config, error) {
	if !t.Known() {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownEvaluator, t)
	}

	empty := len(raw) == 0 || string(raw) == "null"

	switch t {
	case TypeScorer:
		if empty {
			// No config means plain membership scoring.
			return Config{}, nil
		}
		var cfg RankedScorerConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid scorer config: %w", err)
		}
		if cfg.UnrankedPoints < 0 {
			return Config{}, fmt.Errorf("scorer config: unrankedPoints must not be negative, got %d", cfg.UnrankedPoints)
		}
		for rank, points := range cfg.RankedPoints {
			if rank < 1 {
				return Config{}, fmt.Errorf("scorer config: rank must be >= 1, got %d", rank)
			}
			if points < 0 {
				return Config{}, fmt.Errorf("scorer config: points for rank %d must not be negative, got %d", rank, points)
			}
		}
		return Config{RankedScorer: &cfg}, nil

	case TypeExactPlayer:
		if empty {
			return Config{}, nil
		}
		var cfg PositionFilterConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid position filter config: %w", err)
		}
		if len(cfg.Positions) == 0 {
			return Config{}, errors.New("position filter config: positions must not be empty")
		}
		for _, p := range cfg.Positions {
			if p == "" {
				return Config{}, errors.New("position filter config: empty position code")
			}
		}
		return Config{PositionFilter: &cfg}, nil

	case TypeGroupStageAdvance:
		if empty {
			return Config{}, fmt.Errorf("%w: %s needs winnerPoints and advancePoints", ErrMissingConfig, t)
		}
		var cfg GroupStageConfig
		if err := strictUnmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid group stage config: %w", err)
		}
		if cfg.AdvancePoints < 0 {
			return Config{}, fmt.Errorf("group stage config: advancePoints must not be negative, got %d", cfg.AdvancePoints)
		}
		if cfg.WinnerPoints <= cfg.AdvancePoints {
			return Config{}, fmt.Errorf("group stage config: winnerPoints (%d) must exceed advancePoints (%d)", cfg.WinnerPoints, cfg.AdvancePoints)
		}
		return Config{GroupStage: &cfg}, nil

	default:
		if !empty {
			return Config{}, fmt.Errorf("evaluator type %q does not take a config", t)
		}
		return Config{}, nil
	}
}

package scoring

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

var ErrUnknownPosition = errors.New("unknown player position")

// Category names the rubric terms reported in a breakdown.
type Category string

const (
	CategoryAppearance      Category = "appearance"
	CategoryGoals           Category = "goals"
	CategoryAssists         Category = "assists"
	CategoryCleanSheets     Category = "clean_sheets"
	CategoryGoalsConceded   Category = "goals_conceded"
	CategoryPenaltiesSaved  Category = "penalties_saved"
	CategoryPenaltiesMissed Category = "penalties_missed"
	CategoryYellowCards     Category = "yellow_cards"
	CategoryRedCards        Category = "red_cards"
	CategorySaves           Category = "saves"
	CategoryOwnGoals        Category = "own_goals"
	CategoryBonus           Category = "bonus"
)

// Categories lists every breakdown key in presentation order.
var Categories = []Category{
	CategoryAppearance,
	CategoryGoals,
	CategoryAssists,
	CategoryCleanSheets,
	CategoryGoalsConceded,
	CategoryPenaltiesSaved,
	CategoryPenaltiesMissed,
	CategoryYellowCards,
	CategoryRedCards,
	CategorySaves,
	CategoryOwnGoals,
	CategoryBonus,
}

const (
	fullAppearanceMinutes = 60

	assistPoints         = 3
	penaltySavedPoints   = 5
	penaltyMissedPoints  = -2
	yellowCardPoints     = -1
	redCardPoints        = -3
	ownGoalPoints        = -2
	savesPerPoint        = 3
	concededPerDeduction = 2
)

type positionWeights struct {
	goal           int
	cleanSheet     int
	concedePenalty bool
}

var weightsByPosition = map[player.Position]positionWeights{
	player.PositionGoalkeeper: {goal: 6, cleanSheet: 4, concedePenalty: true},
	player.PositionDefender:   {goal: 6, cleanSheet: 4, concedePenalty: true},
	player.PositionMidfielder: {goal: 5, cleanSheet: 1},
	player.PositionForward:    {goal: 4, cleanSheet: 0},
}

// Breakdown maps each category to its signed contribution.
type Breakdown map[Category]int

func (b Breakdown) Total() int {
	total := 0
	for _, v := range b {
		total += v
	}
	return total
}

// ComputeBreakdown applies the rubric term by term. It is pure: the same
// statistics and position always produce the same breakdown.
func ComputeBreakdown(stats matchstats.Statistics, position player.Position) (Breakdown, error) {
	w, ok := weightsByPosition[position]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, position)
	}

	appearance := 0
	if stats.MinutesPlayed > 0 {
		appearance++
	}
	if stats.MinutesPlayed >= fullAppearanceMinutes {
		appearance++
	}

	conceded := 0
	if w.concedePenalty {
		conceded = -int(stats.GoalsConceded / concededPerDeduction)
	}

	return Breakdown{
		CategoryAppearance:      appearance,
		CategoryGoals:           w.goal * int(stats.GoalsScored),
		CategoryAssists:         assistPoints * int(stats.Assists),
		CategoryCleanSheets:     w.cleanSheet * int(stats.CleanSheets),
		CategoryGoalsConceded:   conceded,
		CategoryPenaltiesSaved:  penaltySavedPoints * int(stats.PenaltiesSaved),
		CategoryPenaltiesMissed: penaltyMissedPoints * int(stats.PenaltiesMissed),
		CategoryYellowCards:     yellowCardPoints * int(stats.YellowCards),
		CategoryRedCards:        redCardPoints * int(stats.RedCards),
		CategorySaves:           int(stats.Saves / savesPerPoint),
		CategoryOwnGoals:        ownGoalPoints * int(stats.OwnGoals),
		CategoryBonus:           int(stats.Bonus),
	}, nil
}

// ComputePoints returns the signed fantasy point total. Negative totals are
// returned as-is.
func ComputePoints(stats matchstats.Statistics, position player.Position) (int, error) {
	breakdown, err := ComputeBreakdown(stats, position)
	if err != nil {
		return 0, err
	}
	return breakdown.Total(), nil
}

// Compute builds the audit record for one player in one match.
func Compute(matchID, playerID string, position player.Position, stats matchstats.Statistics) (Result, error) {
	breakdown, err := ComputeBreakdown(stats, position)
	if err != nil {
		return Result{}, fmt.Errorf("compute points player=%s match=%s: %w", playerID, matchID, err)
	}

	return Result{
		MatchID:       matchID,
		PlayerID:      playerID,
		Position:      position,
		MinutesPlayed: stats.MinutesPlayed,
		Total:         breakdown.Total(),
		Breakdown:     breakdown,
	}, nil
}

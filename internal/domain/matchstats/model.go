package matchstats

import (
	"errors"
	"fmt"
)

var (
	ErrScoringInput = errors.New("malformed match statistics")
	ErrFrozen       = errors.New("match statistics are frozen")
	ErrUnknownActor = errors.New("player is not part of the match")
)

// Statistics is one player's accumulated record for one match.
type Statistics struct {
	MinutesPlayed   uint32
	GoalsScored     uint32
	Assists         uint32
	CleanSheets     uint32
	GoalsConceded   uint32
	OwnGoals        uint32
	PenaltiesSaved  uint32
	PenaltiesMissed uint32
	YellowCards     uint32
	RedCards        uint32
	Saves           uint32
	Bonus           int32
}

// Counts is the signed wire form of Statistics, as decoded from requests or rows.
type Counts struct {
	MinutesPlayed   int `json:"minutes_played" db:"minutes_played"`
	GoalsScored     int `json:"goals_scored" db:"goals_scored"`
	Assists         int `json:"assists" db:"assists"`
	CleanSheets     int `json:"clean_sheets" db:"clean_sheets"`
	GoalsConceded   int `json:"goals_conceded" db:"goals_conceded"`
	OwnGoals        int `json:"own_goals" db:"own_goals"`
	PenaltiesSaved  int `json:"penalties_saved" db:"penalties_saved"`
	PenaltiesMissed int `json:"penalties_missed" db:"penalties_missed"`
	YellowCards     int `json:"yellow_cards" db:"yellow_cards"`
	RedCards        int `json:"red_cards" db:"red_cards"`
	Saves           int `json:"saves" db:"saves"`
	Bonus           int `json:"bonus" db:"bonus"`
}

// Statistics converts c, rejecting negative counts instead of letting them
// leak into a point total.
func (c Counts) Statistics() (Statistics, error) {
	fields := []struct {
		name  string
		value int
	}{
		{"minutes_played", c.MinutesPlayed},
		{"goals_scored", c.GoalsScored},
		{"assists", c.Assists},
		{"clean_sheets", c.CleanSheets},
		{"goals_conceded", c.GoalsConceded},
		{"own_goals", c.OwnGoals},
		{"penalties_saved", c.PenaltiesSaved},
		{"penalties_missed", c.PenaltiesMissed},
		{"yellow_cards", c.YellowCards},
		{"red_cards", c.RedCards},
		{"saves", c.Saves},
	}
	for _, f := range fields {
		if f.value < 0 {
			return Statistics{}, fmt.Errorf("%w: %s=%d", ErrScoringInput, f.name, f.value)
		}
		if uint64(f.value) > maxCount {
			return Statistics{}, fmt.Errorf("%w: %s=%d exceeds %d", ErrScoringInput, f.name, f.value, maxCount)
		}
	}
	if c.Bonus < minBonus || c.Bonus > maxBonus {
		return Statistics{}, fmt.Errorf("%w: bonus=%d", ErrScoringInput, c.Bonus)
	}

	return Statistics{
		MinutesPlayed:   uint32(c.MinutesPlayed),
		GoalsScored:     uint32(c.GoalsScored),
		Assists:         uint32(c.Assists),
		CleanSheets:     uint32(c.CleanSheets),
		GoalsConceded:   uint32(c.GoalsConceded),
		OwnGoals:        uint32(c.OwnGoals),
		PenaltiesSaved:  uint32(c.PenaltiesSaved),
		PenaltiesMissed: uint32(c.PenaltiesMissed),
		YellowCards:     uint32(c.YellowCards),
		RedCards:        uint32(c.RedCards),
		Saves:           uint32(c.Saves),
		Bonus:           int32(c.Bonus),
	}, nil
}

func (s Statistics) Counts() Counts {
	return Counts{
		MinutesPlayed:   int(s.MinutesPlayed),
		GoalsScored:     int(s.GoalsScored),
		Assists:         int(s.Assists),
		CleanSheets:     int(s.CleanSheets),
		GoalsConceded:   int(s.GoalsConceded),
		OwnGoals:        int(s.OwnGoals),
		PenaltiesSaved:  int(s.PenaltiesSaved),
		PenaltiesMissed: int(s.PenaltiesMissed),
		YellowCards:     int(s.YellowCards),
		RedCards:        int(s.RedCards),
		Saves:           int(s.Saves),
		Bonus:           int(s.Bonus),
	}
}

const (
	maxCount = 1 << 16
	minBonus = -1 << 16
	maxBonus = 1 << 16
)

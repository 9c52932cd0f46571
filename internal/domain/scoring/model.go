package scoring

import "github.com/riskibarqy/fantasy-matchengine/internal/domain/player"

// Result is the derived fantasy score of one player in one match. It can be
// recomputed from match statistics at any time and is never the source of truth.
type Result struct {
	MatchID       string
	PlayerID      string
	Position      player.Position
	MinutesPlayed uint32
	Total         int
	Breakdown     Breakdown
}

// Lineup is one fantasy team's selection for a gameweek.
type Lineup struct {
	TeamID        string
	StarterIDs    []string
	BenchIDs      []string
	CaptainID     string
	ViceCaptainID string
}

type PlayerPoints struct {
	PlayerID      string
	IsStarter     bool
	IsCaptain     bool
	IsViceCaptain bool
	Multiplier    int
	BasePoints    int
	CountedPoints int
}

type GameweekPoints struct {
	TeamID      string
	Gameweek    int
	TotalPoints int
	Players     []PlayerPoints
}

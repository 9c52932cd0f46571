package match

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

var (
	ErrInvalidTransition = errors.New("invalid match state transition")
	ErrInvalidEvent      = errors.New("invalid match event")
	ErrInvalidRoster     = errors.New("invalid match roster")
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

const (
	RegulationMinutes       = 90
	MaxStartersPerTeam      = 11
	MaxSubstitutionsPerTeam = 3
)

// LineupEntry is one player named in a team's match squad.
type LineupEntry struct {
	PlayerID string
	Position player.Position
	Starting bool
}

// Team is one side of a match with its named squad.
type Team struct {
	ID      string
	Name    string
	Players []LineupEntry
}

func (t Team) Starters() []LineupEntry {
	out := make([]LineupEntry, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Starting {
			out = append(out, p)
		}
	}
	return out
}

// Fixture is the inbound match definition handed over by the scheduling layer.
type Fixture struct {
	ID   string
	Home Team
	Away Team
	Seed int64
}

func (f Fixture) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidRoster)
	}
	if f.Home.ID == "" || f.Away.ID == "" {
		return fmt.Errorf("%w: both team ids are required", ErrInvalidRoster)
	}
	if f.Home.ID == f.Away.ID {
		return fmt.Errorf("%w: home and away team must differ", ErrInvalidRoster)
	}

	seen := make(map[string]struct{})
	for _, side := range []Team{f.Home, f.Away} {
		starters := 0
		for _, entry := range side.Players {
			if entry.PlayerID == "" {
				return fmt.Errorf("%w: player id is required in team %s", ErrInvalidRoster, side.ID)
			}
			if _, dup := seen[entry.PlayerID]; dup {
				return fmt.Errorf("%w: duplicate player %s", ErrInvalidRoster, entry.PlayerID)
			}
			seen[entry.PlayerID] = struct{}{}
			if !entry.Position.Valid() {
				return fmt.Errorf("%w: player %s has unknown position %q", ErrInvalidRoster, entry.PlayerID, entry.Position)
			}
			if entry.Starting {
				starters++
			}
		}
		if starters == 0 {
			return fmt.Errorf("%w: team %s has no starters", ErrInvalidRoster, side.ID)
		}
		if starters > MaxStartersPerTeam {
			return fmt.Errorf("%w: team %s has %d starters, max %d", ErrInvalidRoster, side.ID, starters, MaxStartersPerTeam)
		}
	}

	return nil
}

// Snapshot is an immutable view of a match at one point of its lifecycle.
// Callers must treat slices and maps as read-only.
type Snapshot struct {
	MatchID        string
	HomeTeamID     string
	AwayTeamID     string
	Seed           int64
	Status         Status
	Minute         int
	TerminalMinute int
	HomeScore      int
	AwayScore      int
	Events         []Event
	Statistics     map[string]matchstats.Statistics
	UpdatedAt      time.Time
}

// Clone returns a copy that shares no map or slice with s.
func (s Snapshot) Clone() Snapshot {
	s.Events = slices.Clone(s.Events)
	s.Statistics = maps.Clone(s.Statistics)
	return s
}

// PlayerRecord is the outbound statistics row for one participating player.
type PlayerRecord struct {
	PlayerID   string
	TeamID     string
	Position   player.Position
	Statistics matchstats.Statistics
}

// CompletedMatch is emitted exactly once when a match reaches its terminal minute.
type CompletedMatch struct {
	MatchID        string
	HomeTeamID     string
	AwayTeamID     string
	Seed           int64
	TerminalMinute int
	HomeScore      int
	AwayScore      int
	Events         []Event
	Players        []PlayerRecord
	CompletedAt    time.Time
}

// Snapshot renders the stored record as a final match state.
func (c CompletedMatch) Snapshot() Snapshot {
	stats := make(map[string]matchstats.Statistics, len(c.Players))
	for _, p := range c.Players {
		stats[p.PlayerID] = p.Statistics
	}

	return Snapshot{
		MatchID:        c.MatchID,
		HomeTeamID:     c.HomeTeamID,
		AwayTeamID:     c.AwayTeamID,
		Seed:           c.Seed,
		Status:         StatusCompleted,
		Minute:         c.TerminalMinute,
		TerminalMinute: c.TerminalMinute,
		HomeScore:      c.HomeScore,
		AwayScore:      c.AwayScore,
		Events:         slices.Clone(c.Events),
		Statistics:     stats,
		UpdatedAt:      c.CompletedAt,
	}
}

// Score recomputes the goal tally for both sides from an event list.
func Score(events []Event, homeTeamID, awayTeamID string) (home, away int) {
	for _, ev := range events {
		if ev.Type != EventGoal {
			continue
		}
		switch ev.ScoringTeam(homeTeamID, awayTeamID) {
		case homeTeamID:
			home++
		case awayTeamID:
			away++
		}
	}
	return home, away
}

package httpapi

import (
	"sort"
	"time"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/scoring"
)

type lineupEntryRequest struct {
	PlayerID string `json:"player_id" validate:"required,max=64"`
	Position string `json:"position" validate:"required,oneof=GK DEF MID FWD gk def mid fwd"`
	Starting bool   `json:"starting"`
}

type teamRequest struct {
	ID      string               `json:"id" validate:"required,max=64"`
	Name    string               `json:"name" validate:"omitempty,max=100"`
	Players []lineupEntryRequest `json:"players" validate:"required,min=11,max=40,dive"`
}

type createMatchRequest struct {
	MatchID string      `json:"match_id" validate:"omitempty,max=64"`
	Seed    *int64      `json:"seed"`
	Home    teamRequest `json:"home"`
	Away    teamRequest `json:"away"`
}

type computePointsRequest struct {
	PlayerID string            `json:"player_id" validate:"required"`
	MatchID  string            `json:"match_id"`
	Position string            `json:"position" validate:"required"`
	Stats    matchstats.Counts `json:"stats"`
}

type gameweekPointsRequest struct {
	Gameweek      int      `json:"gameweek" validate:"required,min=1"`
	MatchIDs      []string `json:"match_ids" validate:"required,min=1,dive,required"`
	TeamID        string   `json:"team_id" validate:"omitempty,max=64"`
	StarterIDs    []string `json:"starter_ids" validate:"required,min=1,max=11,dive,required"`
	BenchIDs      []string `json:"bench_ids" validate:"max=4,dive,required"`
	CaptainID     string   `json:"captain_id" validate:"required"`
	ViceCaptainID string   `json:"vice_captain_id" validate:"omitempty,nefield=CaptainID"`
}

type matchStateDTO struct {
	MatchID        string           `json:"match_id"`
	HomeTeamID     string           `json:"home_team_id"`
	AwayTeamID     string           `json:"away_team_id"`
	Seed           int64            `json:"seed"`
	Status         string           `json:"status"`
	Minute         int              `json:"minute"`
	TerminalMinute int              `json:"terminal_minute,omitempty"`
	HomeScore      int              `json:"home_score"`
	AwayScore      int              `json:"away_score"`
	EventCount     int              `json:"event_count"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Players        []playerStatsDTO `json:"players,omitempty"`
}

type playerStatsDTO struct {
	PlayerID string            `json:"player_id"`
	Stats    matchstats.Counts `json:"stats"`
}

type eventDTO struct {
	Sequence        int    `json:"sequence"`
	Minute          int    `json:"minute"`
	Type            string `json:"type"`
	TeamID          string `json:"team_id"`
	PlayerID        string `json:"player_id"`
	AssistPlayerID  string `json:"assist_player_id,omitempty"`
	RelatedPlayerID string `json:"related_player_id,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

type pointsDTO struct {
	MatchID       string         `json:"match_id,omitempty"`
	PlayerID      string         `json:"player_id"`
	Position      string         `json:"position"`
	MinutesPlayed uint32         `json:"minutes_played"`
	Total         int            `json:"total"`
	Breakdown     map[string]int `json:"breakdown"`
}

type gameweekPlayerDTO struct {
	PlayerID      string `json:"player_id"`
	IsStarter     bool   `json:"is_starter"`
	IsCaptain     bool   `json:"is_captain"`
	IsViceCaptain bool   `json:"is_vice_captain"`
	Multiplier    int    `json:"multiplier"`
	BasePoints    int    `json:"base_points"`
	CountedPoints int    `json:"counted_points"`
}

type gameweekPointsDTO struct {
	TeamID      string              `json:"team_id,omitempty"`
	Gameweek    int                 `json:"gameweek"`
	TotalPoints int                 `json:"total_points"`
	Players     []gameweekPlayerDTO `json:"players"`
}

func matchStateToDTO(s match.Snapshot, withPlayers bool) matchStateDTO {
	out := matchStateDTO{
		MatchID:        s.MatchID,
		HomeTeamID:     s.HomeTeamID,
		AwayTeamID:     s.AwayTeamID,
		Seed:           s.Seed,
		Status:         string(s.Status),
		Minute:         s.Minute,
		TerminalMinute: s.TerminalMinute,
		HomeScore:      s.HomeScore,
		AwayScore:      s.AwayScore,
		EventCount:     len(s.Events),
		UpdatedAt:      s.UpdatedAt.UTC(),
	}
	if !withPlayers {
		return out
	}

	out.Players = make([]playerStatsDTO, 0, len(s.Statistics))
	for playerID, stats := range s.Statistics {
		out.Players = append(out.Players, playerStatsDTO{PlayerID: playerID, Stats: stats.Counts()})
	}
	sort.Slice(out.Players, func(i, j int) bool {
		return out.Players[i].PlayerID < out.Players[j].PlayerID
	})
	return out
}

func eventsToDTO(events []match.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			Sequence:        ev.Sequence,
			Minute:          ev.Minute,
			Type:            string(ev.Type),
			TeamID:          ev.TeamID,
			PlayerID:        ev.PlayerID,
			AssistPlayerID:  ev.AssistPlayerID,
			RelatedPlayerID: ev.RelatedPlayerID,
			Detail:          ev.Detail,
		})
	}
	return out
}

func pointsToDTO(r scoring.Result) pointsDTO {
	breakdown := make(map[string]int, len(r.Breakdown))
	for category, points := range r.Breakdown {
		breakdown[string(category)] = points
	}
	return pointsDTO{
		MatchID:       r.MatchID,
		PlayerID:      r.PlayerID,
		Position:      string(r.Position),
		MinutesPlayed: r.MinutesPlayed,
		Total:         r.Total,
		Breakdown:     breakdown,
	}
}

func gameweekToDTO(g scoring.GameweekPoints) gameweekPointsDTO {
	players := make([]gameweekPlayerDTO, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, gameweekPlayerDTO{
			PlayerID:      p.PlayerID,
			IsStarter:     p.IsStarter,
			IsCaptain:     p.IsCaptain,
			IsViceCaptain: p.IsViceCaptain,
			Multiplier:    p.Multiplier,
			BasePoints:    p.BasePoints,
			CountedPoints: p.CountedPoints,
		})
	}
	return gameweekPointsDTO{
		TeamID:      g.TeamID,
		Gameweek:    g.Gameweek,
		TotalPoints: g.TotalPoints,
		Players:     players,
	}
}

package match

import (
	"fmt"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
)

type EventType string

const (
	EventGoal         EventType = "GOAL"
	EventCard         EventType = "CARD"
	EventSubstitution EventType = "SUBSTITUTION"
	EventSave         EventType = "SAVE"
	EventPenalty      EventType = "PENALTY"
)

const (
	DetailYellowCard    = "yellow"
	DetailRedCard       = "red"
	DetailOwnGoal       = "own_goal"
	DetailPenaltyGoal   = "penalty"
	DetailPenaltyMissed = "missed"
	DetailPenaltySaved  = "saved"
)

// Event is one discrete, immutable match occurrence. TeamID is the team of
// PlayerID. RelatedPlayerID is the incoming player of a substitution or the
// goalkeeper who saved a penalty.
type Event struct {
	Sequence        int
	Minute          int
	Type            EventType
	TeamID          string
	PlayerID        string
	AssistPlayerID  string
	RelatedPlayerID string
	Detail          string
}

// ScoringTeam returns the side credited with a goal event. Own goals count
// for the opponent of the player's team.
func (e Event) ScoringTeam(homeTeamID, awayTeamID string) string {
	if e.Type != EventGoal {
		return ""
	}
	if e.Detail != DetailOwnGoal {
		return e.TeamID
	}
	if e.TeamID == homeTeamID {
		return awayTeamID
	}
	return homeTeamID
}

// Contributions breaks the event down into per-player statistic roles.
func (e Event) Contributions() []matchstats.Contribution {
	switch e.Type {
	case EventGoal:
		if e.Detail == DetailOwnGoal {
			return []matchstats.Contribution{{PlayerID: e.PlayerID, Role: matchstats.RoleOwnGoal}}
		}
		out := []matchstats.Contribution{{PlayerID: e.PlayerID, Role: matchstats.RoleScorer}}
		if e.AssistPlayerID != "" {
			out = append(out, matchstats.Contribution{PlayerID: e.AssistPlayerID, Role: matchstats.RoleAssist})
		}
		return out
	case EventCard:
		role := matchstats.RoleYellowCard
		if e.Detail == DetailRedCard {
			role = matchstats.RoleRedCard
		}
		return []matchstats.Contribution{{PlayerID: e.PlayerID, Role: role}}
	case EventSave:
		return []matchstats.Contribution{{PlayerID: e.PlayerID, Role: matchstats.RoleSave}}
	case EventPenalty:
		out := []matchstats.Contribution{{PlayerID: e.PlayerID, Role: matchstats.RolePenaltyMissed}}
		if e.Detail == DetailPenaltySaved && e.RelatedPlayerID != "" {
			out = append(out, matchstats.Contribution{PlayerID: e.RelatedPlayerID, Role: matchstats.RolePenaltySaved})
		}
		return out
	case EventSubstitution:
		return []matchstats.Contribution{
			{PlayerID: e.PlayerID, Role: matchstats.RoleSubstitutedOff},
			{PlayerID: e.RelatedPlayerID, Role: matchstats.RoleSubstitutedOn},
		}
	default:
		return nil
	}
}

// Validate checks the event is well formed on its own, before any roster check.
func (e Event) Validate() error {
	if e.PlayerID == "" || e.TeamID == "" {
		return fmt.Errorf("%w: team and player are required", ErrInvalidEvent)
	}
	if e.Minute < 0 {
		return fmt.Errorf("%w: negative minute %d", ErrInvalidEvent, e.Minute)
	}

	switch e.Type {
	case EventGoal:
		if e.AssistPlayerID == e.PlayerID {
			return fmt.Errorf("%w: player %s cannot assist own goal", ErrInvalidEvent, e.PlayerID)
		}
		if e.Detail == DetailOwnGoal && e.AssistPlayerID != "" {
			return fmt.Errorf("%w: own goal cannot carry an assist", ErrInvalidEvent)
		}
	case EventCard:
		if e.Detail != DetailYellowCard && e.Detail != DetailRedCard {
			return fmt.Errorf("%w: unknown card %q", ErrInvalidEvent, e.Detail)
		}
	case EventSave:
	case EventPenalty:
		if e.Detail != DetailPenaltyMissed && e.Detail != DetailPenaltySaved {
			return fmt.Errorf("%w: unknown penalty outcome %q", ErrInvalidEvent, e.Detail)
		}
		if e.Detail == DetailPenaltySaved && e.RelatedPlayerID == "" {
			return fmt.Errorf("%w: saved penalty needs a goalkeeper", ErrInvalidEvent)
		}
	case EventSubstitution:
		if e.RelatedPlayerID == "" || e.RelatedPlayerID == e.PlayerID {
			return fmt.Errorf("%w: substitution needs a distinct incoming player", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}

	return nil
}

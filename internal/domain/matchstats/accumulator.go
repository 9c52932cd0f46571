package matchstats

import (
	"fmt"
	"sort"
)

// Role is what a player did in one match event.
type Role uint8

const (
	RoleScorer Role = iota + 1
	RoleAssist
	RoleOwnGoal
	RoleYellowCard
	RoleRedCard
	RoleSave
	RolePenaltyMissed
	RolePenaltySaved
	RoleSubstitutedOff
	RoleSubstitutedOn
)

// Contribution attributes one Role to one player.
type Contribution struct {
	PlayerID string
	Role     Role
}

// Contributor is anything that can be broken down into per-player contributions,
// in practice a match event.
type Contributor interface {
	Contributions() []Contribution
}

// Accumulator holds one player's statistics for one match.
type Accumulator struct {
	playerID string
	teamID   string
	onPitch  bool
	frozen   bool
	stats    Statistics
}

func NewAccumulator(playerID, teamID string, starting bool) *Accumulator {
	return &Accumulator{
		playerID: playerID,
		teamID:   teamID,
		onPitch:  starting,
	}
}

func (a *Accumulator) PlayerID() string { return a.playerID }

func (a *Accumulator) TeamID() string { return a.teamID }

func (a *Accumulator) OnPitch() bool { return a.onPitch }

func (a *Accumulator) Statistics() Statistics { return a.stats }

// Record applies a single role. Counters only ever grow.
func (a *Accumulator) Record(role Role) error {
	if a.frozen {
		return ErrFrozen
	}

	switch role {
	case RoleScorer:
		a.stats.GoalsScored++
	case RoleAssist:
		a.stats.Assists++
	case RoleOwnGoal:
		a.stats.OwnGoals++
	case RoleYellowCard:
		a.stats.YellowCards++
	case RoleRedCard:
		a.stats.RedCards++
		a.onPitch = false
	case RoleSave:
		a.stats.Saves++
	case RolePenaltyMissed:
		a.stats.PenaltiesMissed++
	case RolePenaltySaved:
		a.stats.PenaltiesSaved++
		a.stats.Saves++
	case RoleSubstitutedOff:
		a.onPitch = false
	case RoleSubstitutedOn:
		a.onPitch = true
	default:
		return fmt.Errorf("unknown contribution role %d", role)
	}

	return nil
}

// TickMinutes credits minutes to a player on the pitch; minutes stay frozen
// once the player has left.
func (a *Accumulator) TickMinutes(step uint32) {
	if a.frozen || !a.onPitch {
		return
	}
	a.stats.MinutesPlayed += step
}

func (a *Accumulator) concede() {
	if a.frozen || !a.onPitch {
		return
	}
	a.stats.GoalsConceded++
}

// Book is the per-match map of accumulators keyed by player id.
type Book struct {
	byPlayer map[string]*Accumulator
	frozen   bool
}

func NewBook() *Book {
	return &Book{byPlayer: make(map[string]*Accumulator)}
}

func (b *Book) Add(acc *Accumulator) {
	b.byPlayer[acc.playerID] = acc
}

func (b *Book) Get(playerID string) (*Accumulator, bool) {
	acc, ok := b.byPlayer[playerID]
	return acc, ok
}

func (b *Book) Frozen() bool {
	return b.frozen
}

// Apply records every contribution of ev. All referenced players are checked
// before the first mutation so a bad event leaves the book untouched.
func (b *Book) Apply(ev Contributor) error {
	if b.frozen {
		return ErrFrozen
	}

	contributions := ev.Contributions()
	for _, c := range contributions {
		if _, ok := b.byPlayer[c.PlayerID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownActor, c.PlayerID)
		}
	}
	for _, c := range contributions {
		if err := b.byPlayer[c.PlayerID].Record(c.Role); err != nil {
			return err
		}
	}

	return nil
}

// TickMinutes advances minutes for everyone currently on the pitch.
func (b *Book) TickMinutes(step uint32) {
	if b.frozen {
		return
	}
	for _, acc := range b.byPlayer {
		acc.TickMinutes(step)
	}
}

// ConcedeGoal charges a goal against every on-pitch player of teamID.
func (b *Book) ConcedeGoal(teamID string) {
	if b.frozen {
		return
	}
	for _, acc := range b.byPlayer {
		if acc.teamID == teamID {
			acc.concede()
		}
	}
}

// DefaultCleanSheetMinutes is the clean sheet threshold the match engine
// passes to Finalize unless configured otherwise.
const DefaultCleanSheetMinutes = 60

// Finalize awards clean sheets and freezes every accumulator. A player earns
// a clean sheet with at least cleanSheetMinutes on the pitch (60 in the
// engine, see DefaultCleanSheetMinutes) and no goal conceded while there.
// Statistics are frozen afterwards and a second call is a no-op.
func (b *Book) Finalize(cleanSheetMinutes uint32) {
	if b.frozen {
		return
	}
	for _, acc := range b.byPlayer {
		if acc.stats.MinutesPlayed >= cleanSheetMinutes && acc.stats.GoalsConceded == 0 {
			acc.stats.CleanSheets = 1
		}
		acc.frozen = true
	}
	b.frozen = true
}

// Snapshot copies the current statistics map.
func (b *Book) Snapshot() map[string]Statistics {
	out := make(map[string]Statistics, len(b.byPlayer))
	for id, acc := range b.byPlayer {
		out[id] = acc.stats
	}
	return out
}

// PlayerIDs returns the ids in the book in stable order.
func (b *Book) PlayerIDs() []string {
	out := make([]string, 0, len(b.byPlayer))
	for id := range b.byPlayer {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

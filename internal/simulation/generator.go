package simulation

import (
	"math/rand/v2"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

// Probabilities are per-side, per-minute chances of each event kind.
type Probabilities struct {
	Goal          float64
	Assist        float64
	OwnGoal       float64
	Save          float64
	Card          float64
	StraightRed   float64
	Penalty       float64
	PenaltyScored float64
	PenaltySaved  float64
	Substitution  float64
}

// DefaultProbabilities roughly match top-flight per-match averages: about
// 1.4 goals, 3 saves, 2 cards and 0.15 penalties per side.
func DefaultProbabilities() Probabilities {
	return Probabilities{
		Goal:          0.015,
		Assist:        0.7,
		OwnGoal:       0.03,
		Save:          0.035,
		Card:          0.022,
		StraightRed:   0.08,
		Penalty:       0.0017,
		PenaltyScored: 0.76,
		PenaltySaved:  0.16,
		Substitution:  0.06,
	}
}

const (
	substitutionWindowMinute = 46
	maxStoppageMinutes       = 6
)

var (
	scorerWeights = map[player.Position]int{
		player.PositionForward:    6,
		player.PositionMidfielder: 3,
		player.PositionDefender:   1,
	}
	assistWeights = map[player.Position]int{
		player.PositionMidfielder: 4,
		player.PositionForward:    3,
		player.PositionDefender:   2,
	}
	ownGoalWeights = map[player.Position]int{
		player.PositionDefender:   4,
		player.PositionMidfielder: 1,
		player.PositionGoalkeeper: 1,
	}
	cardWeights = map[player.Position]int{
		player.PositionDefender:   3,
		player.PositionMidfielder: 3,
		player.PositionForward:    2,
		player.PositionGoalkeeper: 1,
	}
	takerWeights = map[player.Position]int{
		player.PositionForward:    5,
		player.PositionMidfielder: 3,
		player.PositionDefender:   1,
	}
	substitutionWeights = map[player.Position]int{
		player.PositionForward:    3,
		player.PositionMidfielder: 3,
		player.PositionDefender:   1,
	}
)

// Candidate is one squad member as seen by the generator for one tick.
type Candidate struct {
	match.LineupEntry
	OnPitch bool
}

// Side is one team's squad state for one tick, in roster order.
type Side struct {
	TeamID     string
	Candidates []Candidate
}

// Generator decides, minute by minute, which events happen. It is fully
// deterministic for a given seed and sequence of sides.
type Generator struct {
	rng         *rand.Rand
	probs       Probabilities
	closed      bool
	substituted map[string]struct{}
	subsUsed    map[string]int
	yellows     map[string]int
}

func NewGenerator(seed int64, probs Probabilities) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		probs:       probs,
		substituted: make(map[string]struct{}),
		subsUsed:    make(map[string]int),
		yellows:     make(map[string]int),
	}
}

// Stoppage draws the added time for the second half, 1 to 6 minutes.
func (g *Generator) Stoppage() int {
	return g.rng.IntN(maxStoppageMinutes) + 1
}

// Close stops the generator; Next returns nothing afterwards.
func (g *Generator) Close() {
	g.closed = true
}

// Observe records an event the caller accepted. Bookings and substitutions
// only count once observed, so a rejected event leaves no trace here.
func (g *Generator) Observe(ev match.Event) {
	switch ev.Type {
	case match.EventCard:
		if ev.Detail == match.DetailYellowCard {
			g.yellows[ev.PlayerID]++
		}
	case match.EventSubstitution:
		g.substituted[ev.PlayerID] = struct{}{}
		g.substituted[ev.RelatedPlayerID] = struct{}{}
		g.subsUsed[ev.TeamID]++
	}
}

// Next returns the events of one minute, home side first. Sequence numbers are
// left for the caller to assign.
func (g *Generator) Next(minute int, home, away Side) []match.Event {
	if g.closed {
		return nil
	}

	t := &tickState{gone: make(map[string]struct{})}
	g.sideEvents(t, minute, home, away)
	g.sideEvents(t, minute, away, home)
	return t.events
}

type tickState struct {
	events []match.Event
	gone   map[string]struct{}
}

func (t *tickState) emit(ev match.Event) {
	t.events = append(t.events, ev)
}

func (g *Generator) sideEvents(t *tickState, minute int, attack, defence Side) {
	if g.rng.Float64() < g.probs.Goal {
		g.goal(t, minute, attack, defence)
	}
	if g.rng.Float64() < g.probs.Save {
		if keeper, ok := g.pick(t, defence, goalkeeperOnly); ok {
			t.emit(match.Event{Minute: minute, Type: match.EventSave, TeamID: defence.TeamID, PlayerID: keeper.PlayerID})
		}
	}
	if g.rng.Float64() < g.probs.Penalty {
		g.penalty(t, minute, attack, defence)
	}
	if g.rng.Float64() < g.probs.Card {
		g.card(t, minute, attack)
	}
	if minute >= substitutionWindowMinute && g.subsUsed[attack.TeamID] < match.MaxSubstitutionsPerTeam &&
		g.rng.Float64() < g.probs.Substitution {
		g.substitution(t, minute, attack)
	}
}

func (g *Generator) goal(t *tickState, minute int, attack, defence Side) {
	if g.rng.Float64() < g.probs.OwnGoal {
		if culprit, ok := g.pick(t, defence, ownGoalWeights); ok {
			t.emit(match.Event{
				Minute:   minute,
				Type:     match.EventGoal,
				TeamID:   defence.TeamID,
				PlayerID: culprit.PlayerID,
				Detail:   match.DetailOwnGoal,
			})
		}
		return
	}

	scorer, ok := g.pick(t, attack, scorerWeights)
	if !ok {
		return
	}
	ev := match.Event{Minute: minute, Type: match.EventGoal, TeamID: attack.TeamID, PlayerID: scorer.PlayerID}
	if g.rng.Float64() < g.probs.Assist {
		t.gone[scorer.PlayerID] = struct{}{}
		if assister, ok := g.pick(t, attack, assistWeights); ok {
			ev.AssistPlayerID = assister.PlayerID
		}
		delete(t.gone, scorer.PlayerID)
	}
	t.emit(ev)
}

func (g *Generator) penalty(t *tickState, minute int, attack, defence Side) {
	taker, ok := g.pick(t, attack, takerWeights)
	if !ok {
		return
	}

	roll := g.rng.Float64()
	switch {
	case roll < g.probs.PenaltyScored:
		t.emit(match.Event{
			Minute:   minute,
			Type:     match.EventGoal,
			TeamID:   attack.TeamID,
			PlayerID: taker.PlayerID,
			Detail:   match.DetailPenaltyGoal,
		})
	case roll < g.probs.PenaltyScored+g.probs.PenaltySaved:
		keeper, ok := g.pick(t, defence, goalkeeperOnly)
		if !ok {
			t.emit(match.Event{Minute: minute, Type: match.EventPenalty, TeamID: attack.TeamID, PlayerID: taker.PlayerID, Detail: match.DetailPenaltyMissed})
			return
		}
		t.emit(match.Event{
			Minute:          minute,
			Type:            match.EventPenalty,
			TeamID:          attack.TeamID,
			PlayerID:        taker.PlayerID,
			RelatedPlayerID: keeper.PlayerID,
			Detail:          match.DetailPenaltySaved,
		})
	default:
		t.emit(match.Event{Minute: minute, Type: match.EventPenalty, TeamID: attack.TeamID, PlayerID: taker.PlayerID, Detail: match.DetailPenaltyMissed})
	}
}

func (g *Generator) card(t *tickState, minute int, side Side) {
	offender, ok := g.pick(t, side, cardWeights)
	if !ok {
		return
	}

	// A second booking is reported as the red alone.
	if g.rng.Float64() >= g.probs.StraightRed && g.yellows[offender.PlayerID] == 0 {
		t.emit(match.Event{Minute: minute, Type: match.EventCard, TeamID: side.TeamID, PlayerID: offender.PlayerID, Detail: match.DetailYellowCard})
		return
	}

	t.emit(match.Event{Minute: minute, Type: match.EventCard, TeamID: side.TeamID, PlayerID: offender.PlayerID, Detail: match.DetailRedCard})
	t.gone[offender.PlayerID] = struct{}{}
}

func (g *Generator) substitution(t *tickState, minute int, side Side) {
	off, ok := g.pickWhere(t, side, substitutionWeights, func(c Candidate) bool {
		_, used := g.substituted[c.PlayerID]
		return used
	})
	if !ok {
		return
	}

	var bench []Candidate
	for _, c := range side.Candidates {
		if c.OnPitch || c.Starting || c.Position == player.PositionGoalkeeper {
			continue
		}
		if _, used := g.substituted[c.PlayerID]; used {
			continue
		}
		bench = append(bench, c)
	}
	if len(bench) == 0 {
		return
	}

	var on Candidate
	samePosition := make([]Candidate, 0, len(bench))
	for _, c := range bench {
		if c.Position == off.Position {
			samePosition = append(samePosition, c)
		}
	}
	if len(samePosition) > 0 {
		on = samePosition[g.rng.IntN(len(samePosition))]
	} else {
		on = bench[g.rng.IntN(len(bench))]
	}

	t.gone[off.PlayerID] = struct{}{}
	t.emit(match.Event{
		Minute:          minute,
		Type:            match.EventSubstitution,
		TeamID:          side.TeamID,
		PlayerID:        off.PlayerID,
		RelatedPlayerID: on.PlayerID,
	})
}

var goalkeeperOnly = map[player.Position]int{player.PositionGoalkeeper: 1}

// pick draws one on-pitch player of side by position weight, skipping anyone
// who left the pitch earlier in the same tick.
func (g *Generator) pick(t *tickState, side Side, weights map[player.Position]int) (Candidate, bool) {
	return g.pickWhere(t, side, weights, nil)
}

func (g *Generator) pickWhere(t *tickState, side Side, weights map[player.Position]int, skip func(Candidate) bool) (Candidate, bool) {
	total := 0
	pool := make([]Candidate, 0, len(side.Candidates))
	for _, c := range side.Candidates {
		if !c.OnPitch {
			continue
		}
		if _, out := t.gone[c.PlayerID]; out {
			continue
		}
		if skip != nil && skip(c) {
			continue
		}
		w := weights[c.Position]
		if w <= 0 {
			continue
		}
		total += w
		pool = append(pool, c)
	}
	if total == 0 {
		return Candidate{}, false
	}

	roll := g.rng.IntN(total)
	for _, c := range pool {
		roll -= weights[c.Position]
		if roll < 0 {
			return c, true
		}
	}
	return pool[len(pool)-1], true
}

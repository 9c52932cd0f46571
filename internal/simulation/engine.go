package simulation

import (
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
)

// Options tune one engine. Zero values fall back to defaults.
type Options struct {
	MinuteStep        int
	StoppageMinutes   int
	CleanSheetMinutes uint32
	Probabilities     *Probabilities
	Now               func() time.Time
	Logger            *logging.Logger
}

const (
	defaultMinuteStep        = 1
	defaultCleanSheetMinutes = matchstats.DefaultCleanSheetMinutes
)

func (o Options) withDefaults() Options {
	if o.MinuteStep <= 0 {
		o.MinuteStep = defaultMinuteStep
	}
	if o.CleanSheetMinutes == 0 {
		o.CleanSheetMinutes = defaultCleanSheetMinutes
	}
	if o.Probabilities == nil {
		probs := DefaultProbabilities()
		o.Probabilities = &probs
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
	return o
}

// TickResult reports what one tick produced.
type TickResult struct {
	Minute    int
	Events    []match.Event
	Discarded int
	Completed bool
}

// Engine simulates one match. Mutations are serialised by mu; readers use
// State, which only loads the last published snapshot and never blocks.
type Engine struct {
	mu sync.Mutex

	fixture   match.Fixture
	opts      Options
	gen       *Generator
	logger    *logging.Logger
	status    match.Status
	minute    int
	terminal  int
	events    []match.Event
	book      *matchstats.Book
	positions map[string]player.Position
	teamOf    map[string]string
	entered   map[string]struct{}
	homeScore int
	awayScore int
	completed *match.CompletedMatch

	snapshot atomic.Pointer[match.Snapshot]
}

func NewEngine(fixture match.Fixture, opts Options) (*Engine, error) {
	if err := fixture.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	e := &Engine{
		fixture:   fixture,
		opts:      opts,
		gen:       NewGenerator(fixture.Seed, *opts.Probabilities),
		logger:    opts.Logger.With("match_id", fixture.ID),
		status:    match.StatusScheduled,
		positions: make(map[string]player.Position),
		teamOf:    make(map[string]string),
		entered:   make(map[string]struct{}),
	}
	for _, side := range []match.Team{fixture.Home, fixture.Away} {
		for _, entry := range side.Players {
			e.positions[entry.PlayerID] = entry.Position
			e.teamOf[entry.PlayerID] = side.ID
		}
	}
	e.publish()

	return e, nil
}

func (e *Engine) ID() string {
	return e.fixture.ID
}

func (e *Engine) Fixture() match.Fixture {
	return e.fixture
}

// Position returns the squad position of playerID. The roster never changes
// after construction so no lock is needed.
func (e *Engine) Position(playerID string) (player.Position, bool) {
	pos, ok := e.positions[playerID]
	return pos, ok
}

// Start moves a scheduled match in progress with every accumulator at zero.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != match.StatusScheduled {
		return crerr.Wrapf(match.ErrInvalidTransition, "start match %s: status is %s", e.fixture.ID, e.status)
	}

	e.book = matchstats.NewBook()
	for _, side := range []match.Team{e.fixture.Home, e.fixture.Away} {
		for _, entry := range side.Players {
			e.book.Add(matchstats.NewAccumulator(entry.PlayerID, side.ID, entry.Starting))
		}
	}

	stoppage := e.opts.StoppageMinutes
	if stoppage <= 0 {
		stoppage = e.gen.Stoppage()
	}
	e.terminal = match.RegulationMinutes + stoppage
	e.minute = 0
	e.status = match.StatusInProgress
	e.publish()

	e.logger.Info("match started",
		"home_team_id", e.fixture.Home.ID,
		"away_team_id", e.fixture.Away.ID,
		"terminal_minute", e.terminal,
	)
	return nil
}

// Tick advances the clock by one step. It fails on any match that is not in
// progress instead of returning the last known state.
func (e *Engine) Tick() (TickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != match.StatusInProgress {
		return TickResult{}, crerr.Wrapf(match.ErrInvalidTransition, "tick match %s: status is %s", e.fixture.ID, e.status)
	}

	step := e.opts.MinuteStep
	if e.minute+step > e.terminal {
		step = e.terminal - e.minute
	}
	e.minute += step
	e.book.TickMinutes(uint32(step))

	result := TickResult{Minute: e.minute}
	for _, ev := range e.gen.Next(e.minute, e.side(e.fixture.Home), e.side(e.fixture.Away)) {
		ev.Sequence = len(e.events) + 1
		if err := e.apply(ev); err != nil {
			result.Discarded++
			e.logger.Debug("match event discarded", "minute", e.minute, "type", ev.Type, "player_id", ev.PlayerID, "error", err)
			continue
		}
		e.gen.Observe(ev)
		result.Events = append(result.Events, ev)
	}

	if e.minute >= e.terminal {
		e.complete()
		result.Completed = true
	}
	e.publish()

	return result, nil
}

// State returns the latest published snapshot. Safe from any goroutine.
// The Statistics map and Events slice are shared with every other reader of
// the same snapshot and must be treated as read-only; use Snapshot.Clone
// before handing it to code that may modify it.
func (e *Engine) State() match.Snapshot {
	return *e.snapshot.Load()
}

// Completed returns the outbound record once the match is over.
func (e *Engine) Completed() (match.CompletedMatch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.completed == nil {
		return match.CompletedMatch{}, false
	}
	return *e.completed, true
}

// apply validates ev against the current pitch and records it. A rejected
// event leaves the match untouched.
func (e *Engine) apply(ev match.Event) error {
	if err := e.validate(ev); err != nil {
		return err
	}
	if err := e.book.Apply(ev); err != nil {
		return crerr.Mark(err, match.ErrInvalidEvent)
	}

	switch ev.Type {
	case match.EventGoal:
		scoring := ev.ScoringTeam(e.fixture.Home.ID, e.fixture.Away.ID)
		if scoring == e.fixture.Home.ID {
			e.homeScore++
			e.book.ConcedeGoal(e.fixture.Away.ID)
		} else {
			e.awayScore++
			e.book.ConcedeGoal(e.fixture.Home.ID)
		}
	case match.EventSubstitution:
		e.entered[ev.PlayerID] = struct{}{}
		e.entered[ev.RelatedPlayerID] = struct{}{}
	}

	e.events = append(e.events, ev)
	return nil
}

func (e *Engine) validate(ev match.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	onPitchOf := func(playerID, teamID string) error {
		if e.teamOf[playerID] != teamID {
			return crerr.Wrapf(match.ErrInvalidEvent, "player %s is not in team %s", playerID, teamID)
		}
		acc, ok := e.book.Get(playerID)
		if !ok || !acc.OnPitch() {
			return crerr.Wrapf(match.ErrInvalidEvent, "player %s is not on the pitch", playerID)
		}
		return nil
	}

	if err := onPitchOf(ev.PlayerID, ev.TeamID); err != nil {
		return err
	}
	if ev.AssistPlayerID != "" {
		if err := onPitchOf(ev.AssistPlayerID, ev.TeamID); err != nil {
			return err
		}
	}

	switch ev.Type {
	case match.EventPenalty:
		if ev.Detail == match.DetailPenaltySaved {
			keeperTeam := e.opponentOf(ev.TeamID)
			if err := onPitchOf(ev.RelatedPlayerID, keeperTeam); err != nil {
				return err
			}
		}
	case match.EventSubstitution:
		if e.teamOf[ev.RelatedPlayerID] != ev.TeamID {
			return crerr.Wrapf(match.ErrInvalidEvent, "substitute %s is not in team %s", ev.RelatedPlayerID, ev.TeamID)
		}
		for _, id := range []string{ev.PlayerID, ev.RelatedPlayerID} {
			if _, done := e.entered[id]; done {
				return crerr.Wrapf(match.ErrInvalidEvent, "player %s already substituted", id)
			}
		}
		if acc, ok := e.book.Get(ev.RelatedPlayerID); !ok || acc.OnPitch() {
			return crerr.Wrapf(match.ErrInvalidEvent, "substitute %s is not on the bench", ev.RelatedPlayerID)
		}
		if e.substitutionsUsed(ev.TeamID) >= match.MaxSubstitutionsPerTeam {
			return crerr.Wrapf(match.ErrInvalidEvent, "team %s has no substitutions left", ev.TeamID)
		}
	}

	return nil
}

func (e *Engine) substitutionsUsed(teamID string) int {
	n := 0
	for _, ev := range e.events {
		if ev.Type == match.EventSubstitution && ev.TeamID == teamID {
			n++
		}
	}
	return n
}

func (e *Engine) opponentOf(teamID string) string {
	if teamID == e.fixture.Home.ID {
		return e.fixture.Away.ID
	}
	return e.fixture.Home.ID
}

func (e *Engine) side(team match.Team) Side {
	out := Side{TeamID: team.ID, Candidates: make([]Candidate, 0, len(team.Players))}
	for _, entry := range team.Players {
		acc, _ := e.book.Get(entry.PlayerID)
		out.Candidates = append(out.Candidates, Candidate{
			LineupEntry: entry,
			OnPitch:     acc != nil && acc.OnPitch(),
		})
	}
	return out
}

func (e *Engine) complete() {
	e.gen.Close()
	e.book.Finalize(e.opts.CleanSheetMinutes)
	e.status = match.StatusCompleted

	stats := e.book.Snapshot()
	players := make([]match.PlayerRecord, 0, len(stats))
	for _, id := range e.book.PlayerIDs() {
		players = append(players, match.PlayerRecord{
			PlayerID:   id,
			TeamID:     e.teamOf[id],
			Position:   e.positions[id],
			Statistics: stats[id],
		})
	}

	e.completed = &match.CompletedMatch{
		MatchID:        e.fixture.ID,
		HomeTeamID:     e.fixture.Home.ID,
		AwayTeamID:     e.fixture.Away.ID,
		Seed:           e.fixture.Seed,
		TerminalMinute: e.terminal,
		HomeScore:      e.homeScore,
		AwayScore:      e.awayScore,
		Events:         append([]match.Event(nil), e.events...),
		Players:        players,
		CompletedAt:    e.opts.Now().UTC(),
	}

	e.logger.Info("match completed",
		"home_score", e.homeScore,
		"away_score", e.awayScore,
		"events", len(e.events),
	)
}

// publish stores a fresh snapshot. Events are shared with a capped slice so
// later appends never become visible through an older snapshot.
func (e *Engine) publish() {
	var stats map[string]matchstats.Statistics
	if e.book != nil {
		stats = e.book.Snapshot()
	}
	e.snapshot.Store(&match.Snapshot{
		MatchID:        e.fixture.ID,
		HomeTeamID:     e.fixture.Home.ID,
		AwayTeamID:     e.fixture.Away.ID,
		Seed:           e.fixture.Seed,
		Status:         e.status,
		Minute:         e.minute,
		TerminalMinute: e.terminal,
		HomeScore:      e.homeScore,
		AwayScore:      e.awayScore,
		Events:         e.events[:len(e.events):len(e.events)],
		Statistics:     stats,
		UpdatedAt:      e.opts.Now().UTC(),
	})
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/valuation"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/cache"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/id"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-matchengine/internal/simulation"
	"go.opentelemetry.io/otel/attribute"
)

// SimulationOptions configure the service. Zero values fall back to defaults.
type SimulationOptions struct {
	TickInterval      time.Duration
	MinuteStep        int
	StoppageMinutes   int
	MaxConcurrent     int
	CompletionWorkers int
	PointsCacheTTL    time.Duration
	TrendThreshold    int64
	Probabilities     *simulation.Probabilities
}

const (
	defaultMaxConcurrentMatches = 64
	defaultCompletionWorkers    = 4
	defaultPointsCacheTTL       = 5 * time.Minute
	completionTimeout           = 30 * time.Second
)

func (o SimulationOptions) withDefaults() SimulationOptions {
	if o.MaxConcurrent < 1 {
		o.MaxConcurrent = defaultMaxConcurrentMatches
	}
	if o.CompletionWorkers < 1 {
		o.CompletionWorkers = defaultCompletionWorkers
	}
	if o.PointsCacheTTL == 0 {
		o.PointsCacheTTL = defaultPointsCacheTTL
	}
	if o.TrendThreshold < 0 {
		o.TrendThreshold = valuation.DefaultTrendThreshold
	}
	return o
}

type LineupInput struct {
	PlayerID string
	Position string
	Starting bool
}

type TeamInput struct {
	ID      string
	Name    string
	Players []LineupInput
}

// CreateMatchInput is the inbound match definition. An empty MatchID gets a
// generated one; a nil Seed gets a random one, reported back in the state.
type CreateMatchInput struct {
	MatchID string
	Home    TeamInput
	Away    TeamInput
	Seed    *int64
}

// SimulationService owns the match registry and every match driver. It is
// the only entry point the transport layer talks to.
type SimulationService struct {
	registry   *simulation.Registry
	runner     *simulation.Runner
	pool       *ants.Pool
	matchRepo  match.Repository
	playerRepo player.Repository
	points     *cache.Store[[]scoring.Result]
	ids        id.Generator
	opts       SimulationOptions
	logger     *logging.Logger
	now        func() time.Time
	seed       func() int64

	createMu    sync.Mutex
	completions sync.WaitGroup
}

func NewSimulationService(
	matchRepo match.Repository,
	playerRepo player.Repository,
	ids id.Generator,
	opts SimulationOptions,
	logger *logging.Logger,
) (*SimulationService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	opts = opts.withDefaults()

	pool, err := ants.NewPool(opts.CompletionWorkers)
	if err != nil {
		return nil, fmt.Errorf("create completion pool: %w", err)
	}

	s := &SimulationService{
		registry:   simulation.NewRegistry(),
		pool:       pool,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		points:     cache.NewStore[[]scoring.Result](opts.PointsCacheTTL),
		ids:        ids,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		seed:       rand.Int64,
	}
	s.runner = simulation.NewRunner(opts.TickInterval, s.onMatchCompleted, logger)

	return s, nil
}

func (s *SimulationService) CreateMatch(ctx context.Context, input CreateMatchInput) (match.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.CreateMatch")
	defer span.End()

	fixture, err := s.buildFixture(input)
	if err != nil {
		recordSpanError(span, err)
		return match.Snapshot{}, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if s.registry.Len() >= s.opts.MaxConcurrent {
		return match.Snapshot{}, fmt.Errorf("%w: %d matches already live", ErrConflict, s.opts.MaxConcurrent)
	}
	if _, done, err := s.completedRecord(ctx, fixture.ID); err != nil {
		recordSpanError(span, err)
		return match.Snapshot{}, err
	} else if done {
		return match.Snapshot{}, fmt.Errorf("%w: match %s already completed", ErrConflict, fixture.ID)
	}

	engine, err := simulation.NewEngine(fixture, simulation.Options{
		MinuteStep:      s.opts.MinuteStep,
		StoppageMinutes: s.opts.StoppageMinutes,
		Probabilities:   s.opts.Probabilities,
		Now:             s.now,
		Logger:          s.logger,
	})
	if err != nil {
		return match.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.registry.Add(engine); err != nil {
		if errors.Is(err, simulation.ErrMatchExists) {
			return match.Snapshot{}, fmt.Errorf("%w: match %s already exists", ErrConflict, fixture.ID)
		}
		return match.Snapshot{}, err
	}

	s.logger.InfoContext(ctx, "match created", "match_id", fixture.ID, "seed", fixture.Seed)
	return engine.State().Clone(), nil
}

func (s *SimulationService) buildFixture(input CreateMatchInput) (match.Fixture, error) {
	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return match.Fixture{}, fmt.Errorf("generate match id: %w", err)
		}
		matchID = generated
	}

	seed := s.seed()
	if input.Seed != nil {
		seed = *input.Seed
	}

	fixture := match.Fixture{
		ID:   matchID,
		Home: toTeam(input.Home),
		Away: toTeam(input.Away),
		Seed: seed,
	}
	if err := fixture.Validate(); err != nil {
		return match.Fixture{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return fixture, nil
}

func toTeam(in TeamInput) match.Team {
	out := match.Team{
		ID:      strings.TrimSpace(in.ID),
		Name:    strings.TrimSpace(in.Name),
		Players: make([]match.LineupEntry, 0, len(in.Players)),
	}
	for _, p := range in.Players {
		out.Players = append(out.Players, match.LineupEntry{
			PlayerID: strings.TrimSpace(p.PlayerID),
			Position: player.Position(strings.ToUpper(strings.TrimSpace(p.Position))),
			Starting: p.Starting,
		})
	}
	return out
}

// StartMatch launches the driver of a scheduled match, or relaunches one that
// was stopped mid-match.
func (s *SimulationService) StartMatch(ctx context.Context, matchID string) (match.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.StartMatch", attribute.String("match.id", matchID))
	defer span.End()

	engine, err := s.liveEngine(ctx, matchID)
	if err != nil {
		recordSpanError(span, err)
		return match.Snapshot{}, err
	}

	switch engine.State().Status {
	case match.StatusScheduled:
		err = s.runner.Run(ctx, engine)
	case match.StatusInProgress:
		err = s.runner.Resume(ctx, engine)
	default:
		err = crerr.Wrapf(match.ErrInvalidTransition, "start match %s", matchID)
	}
	if err != nil {
		if errors.Is(err, simulation.ErrAlreadyRunning) || errors.Is(err, match.ErrInvalidTransition) {
			return match.Snapshot{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		recordSpanError(span, err)
		return match.Snapshot{}, err
	}

	return engine.State().Clone(), nil
}

// StopMatch signals the driver; the match stays in progress and can be started again.
func (s *SimulationService) StopMatch(ctx context.Context, matchID string) (match.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.StopMatch", attribute.String("match.id", matchID))
	defer span.End()

	engine, err := s.liveEngine(ctx, matchID)
	if err != nil {
		recordSpanError(span, err)
		return match.Snapshot{}, err
	}
	if err := s.runner.Stop(matchID); err != nil {
		if errors.Is(err, simulation.ErrNotRunning) {
			return match.Snapshot{}, fmt.Errorf("%w: match %s is not running", ErrConflict, matchID)
		}
		return match.Snapshot{}, err
	}

	s.logger.InfoContext(ctx, "match stop requested", "match_id", matchID)
	return engine.State().Clone(), nil
}

// GetState serves live matches from their engine and completed ones from the
// repository.
func (s *SimulationService) GetState(ctx context.Context, matchID string) (match.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.GetState", attribute.String("match.id", matchID))
	defer span.End()

	if engine, ok := s.registry.Get(matchID); ok {
		return engine.State().Clone(), nil
	}

	record, ok, err := s.completedRecord(ctx, matchID)
	if err != nil {
		recordSpanError(span, err)
		return match.Snapshot{}, err
	}
	if !ok {
		return match.Snapshot{}, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return record.Snapshot(), nil
}

// ListMatches returns the state of every live match ordered by id.
func (s *SimulationService) ListMatches(ctx context.Context) []match.Snapshot {
	_, span := startUsecaseSpan(ctx, "usecase.SimulationService.ListMatches")
	defer span.End()

	engines := s.registry.List()
	out := make([]match.Snapshot, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.State().Clone())
	}
	return out
}

// ListEvents returns events with a sequence greater than afterSequence, so a
// poller only fetches what it has not seen.
func (s *SimulationService) ListEvents(ctx context.Context, matchID string, afterSequence int) ([]match.Event, error) {
	if afterSequence < 0 {
		return nil, fmt.Errorf("%w: after sequence must be >= 0", ErrInvalidInput)
	}

	state, err := s.GetState(ctx, matchID)
	if err != nil {
		return nil, err
	}

	// Sequence is 1-based and contiguous.
	if afterSequence >= len(state.Events) {
		return []match.Event{}, nil
	}
	return state.Events[afterSequence:], nil
}

// MatchPoints scores every squad member of a match. Live matches are scored
// from the current snapshot; completed ones are cached.
func (s *SimulationService) MatchPoints(ctx context.Context, matchID string) ([]scoring.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.MatchPoints", attribute.String("match.id", matchID))
	defer span.End()

	if engine, ok := s.registry.Get(matchID); ok {
		state := engine.State()
		if state.Status != match.StatusCompleted {
			return scoreSnapshot(state, engine.Position)
		}
	}

	results, err := s.points.GetOrLoad(ctx, pointsCacheKey(matchID), func(ctx context.Context) ([]scoring.Result, error) {
		if engine, ok := s.registry.Get(matchID); ok {
			if record, done := engine.Completed(); done {
				return scoreRecord(record)
			}
		}
		record, ok, err := s.completedRecord(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
		}
		return scoreRecord(record)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return results, nil
}

func scoreSnapshot(state match.Snapshot, positionOf func(string) (player.Position, bool)) ([]scoring.Result, error) {
	ids := make([]string, 0, len(state.Statistics))
	for playerID := range state.Statistics {
		ids = append(ids, playerID)
	}
	sort.Strings(ids)

	out := make([]scoring.Result, 0, len(ids))
	for _, playerID := range ids {
		position, ok := positionOf(playerID)
		if !ok {
			continue
		}
		result, err := scoring.Compute(state.MatchID, playerID, position, state.Statistics[playerID])
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

func scoreRecord(record match.CompletedMatch) ([]scoring.Result, error) {
	out := make([]scoring.Result, 0, len(record.Players))
	for _, p := range record.Players {
		result, err := scoring.Compute(record.MatchID, p.PlayerID, p.Position, p.Statistics)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

func pointsCacheKey(matchID string) string {
	return "points:match:" + matchID
}

// GameweekInput is one fantasy lineup plus the matches of its gameweek.
type GameweekInput struct {
	Gameweek int
	MatchIDs []string
	Lineup   scoring.Lineup
}

func (s *SimulationService) GameweekPoints(ctx context.Context, input GameweekInput) (scoring.GameweekPoints, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SimulationService.GameweekPoints")
	defer span.End()

	if input.Gameweek < 1 {
		return scoring.GameweekPoints{}, fmt.Errorf("%w: gameweek must be >= 1", ErrInvalidInput)
	}
	if len(input.MatchIDs) == 0 {
		return scoring.GameweekPoints{}, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}
	if len(input.Lineup.StarterIDs) == 0 {
		return scoring.GameweekPoints{}, fmt.Errorf("%w: lineup has no starters", ErrInvalidInput)
	}

	var results []scoring.Result
	for _, matchID := range input.MatchIDs {
		rows, err := s.MatchPoints(ctx, matchID)
		if err != nil {
			recordSpanError(span, err)
			return scoring.GameweekPoints{}, err
		}
		results = append(results, rows...)
	}

	return scoring.GameweekTotal(input.Lineup, input.Gameweek, results), nil
}

// ComputePointsInput is a stateless rubric request.
type ComputePointsInput struct {
	PlayerID string
	MatchID  string
	Position string
	Stats    matchstats.Counts
}

func (s *SimulationService) ComputePoints(ctx context.Context, input ComputePointsInput) (scoring.Result, error) {
	_, span := startUsecaseSpan(ctx, "usecase.SimulationService.ComputePoints")
	defer span.End()

	stats, err := input.Stats.Statistics()
	if err != nil {
		return scoring.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	position := player.Position(strings.ToUpper(strings.TrimSpace(input.Position)))
	result, err := scoring.Compute(input.MatchID, input.PlayerID, position, stats)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return result, nil
}

// Shutdown stops every driver and waits for in-flight completion work.
func (s *SimulationService) Shutdown(ctx context.Context) error {
	s.runner.StopAll()

	done := make(chan struct{})
	go func() {
		s.runner.Wait()
		s.completions.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for match drivers: %w", ctx.Err())
	}

	timeout := completionTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release completion pool: %w", err)
	}
	return nil
}

func (s *SimulationService) liveEngine(ctx context.Context, matchID string) (*simulation.Engine, error) {
	if engine, ok := s.registry.Get(matchID); ok {
		return engine, nil
	}

	_, done, err := s.completedRecord(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("%w: match %s already completed", ErrConflict, matchID)
	}
	return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
}

func (s *SimulationService) completedRecord(ctx context.Context, matchID string) (match.CompletedMatch, bool, error) {
	if s.matchRepo == nil {
		return match.CompletedMatch{}, false, nil
	}
	record, ok, err := s.matchRepo.GetCompleted(ctx, matchID)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return match.CompletedMatch{}, false, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
		return match.CompletedMatch{}, false, fmt.Errorf("get completed match %s: %w", matchID, err)
	}
	return record, ok, nil
}

// onMatchCompleted runs on the driver goroutine; the slow part is handed to
// the completion pool so the driver returns at once.
func (s *SimulationService) onMatchCompleted(ctx context.Context, record match.CompletedMatch) {
	s.completions.Add(1)
	task := func() {
		defer s.completions.Done()
		s.finishMatch(ctx, record)
	}
	if err := s.pool.Submit(task); err != nil {
		s.logger.WarnContext(ctx, "completion pool rejected task, running inline", "match_id", record.MatchID, "error", err)
		task()
	}
}

func (s *SimulationService) finishMatch(ctx context.Context, record match.CompletedMatch) {
	// The driver context is cancelled once the driver returns.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionTimeout)
	defer cancel()

	logger := s.logger.With("match_id", record.MatchID)

	if s.matchRepo != nil {
		if err := s.matchRepo.SaveCompleted(ctx, record); err != nil {
			// The engine stays registered so the final state is still served.
			logger.ErrorContext(ctx, "persist completed match failed", "error", err)
			return
		}
	}
	s.registry.Remove(record.MatchID)

	if err := s.revalue(ctx, record); err != nil {
		logger.ErrorContext(ctx, "revalue players failed", "error", err)
	}
}

func (s *SimulationService) revalue(ctx context.Context, record match.CompletedMatch) error {
	if s.playerRepo == nil || len(record.Players) == 0 {
		return nil
	}

	ids := make([]string, 0, len(record.Players))
	statsByPlayer := make(map[string]match.PlayerRecord, len(record.Players))
	for _, p := range record.Players {
		ids = append(ids, p.PlayerID)
		statsByPlayer[p.PlayerID] = p
	}

	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get players for revaluation: %w", err)
	}

	var errs []error
	for _, p := range players {
		if !p.Active {
			continue
		}
		row, ok := statsByPlayer[p.ID]
		if !ok || row.Statistics.MinutesPlayed == 0 {
			continue
		}

		out := valuation.Revalue(p, row.Statistics, s.opts.TrendThreshold)
		if err := s.playerRepo.UpdateValuation(ctx, player.Valuation{
			PlayerID:     p.ID,
			FormRating:   out.Player.FormRating,
			CurrentPrice: out.Player.CurrentPrice,
		}); err != nil {
			errs = append(errs, fmt.Errorf("update valuation player=%s: %w", p.ID, err))
			continue
		}
		s.logger.DebugContext(ctx, "player revalued",
			"match_id", record.MatchID,
			"player_id", p.ID,
			"old_price", out.OldPrice,
			"new_price", out.Player.CurrentPrice,
			"trend", out.Trend,
		)
	}

	return errors.Join(errs...)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/scoring"
	matchmock "github.com/riskibarqy/fantasy-matchengine/internal/mocks/domain/match"
	playermock "github.com/riskibarqy/fantasy-matchengine/internal/mocks/domain/player"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/id"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/resilience"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func teamInput(teamID string) TeamInput {
	positions := []string{"GK", "DEF", "DEF", "DEF", "DEF", "MID", "MID", "MID", "FWD", "FWD", "FWD", "GK", "DEF", "MID", "FWD"}
	out := TeamInput{ID: teamID, Name: "Team " + teamID}
	for i, pos := range positions {
		out.Players = append(out.Players, LineupInput{
			PlayerID: fmt.Sprintf("%s-p%02d", teamID, i+1),
			Position: pos,
			Starting: i < 11,
		})
	}
	return out
}

func matchInput(matchID string, seed int64) CreateMatchInput {
	return CreateMatchInput{
		MatchID: matchID,
		Home:    teamInput("home"),
		Away:    teamInput("away"),
		Seed:    &seed,
	}
}

func newTestService(t *testing.T, matchRepo match.Repository, playerRepo player.Repository) *SimulationService {
	t.Helper()
	svc, err := NewSimulationService(matchRepo, playerRepo, id.NewSequence("generated-1", "generated-2"), SimulationOptions{
		TickInterval:      time.Millisecond,
		MinuteStep:        15,
		StoppageMinutes:   2,
		CompletionWorkers: 2,
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

// waitForCompletion blocks until every driver returned and its completion
// task finished.
func waitForCompletion(svc *SimulationService) {
	svc.runner.Wait()
	svc.completions.Wait()
}

func TestSimulationService_CreateMatch_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	svc := newTestService(t, matchRepo, nil)

	matchRepo.
		On("GetCompleted", mock.Anything, "m-1").
		Return(match.CompletedMatch{}, false, nil).
		Once()

	state, err := svc.CreateMatch(ctx, matchInput("m-1", 42))
	require.NoError(t, err)
	require.Equal(t, "m-1", state.MatchID)
	require.Equal(t, match.StatusScheduled, state.Status)
	require.Equal(t, int64(42), state.Seed)
	require.Len(t, svc.ListMatches(ctx), 1)
}

func TestSimulationService_CreateMatch_GeneratesIDAndSeed(t *testing.T) {
	t.Parallel()

	matchRepo := matchmock.NewRepository(t)
	svc := newTestService(t, matchRepo, nil)
	svc.seed = func() int64 { return 99 }

	matchRepo.
		On("GetCompleted", mock.Anything, "generated-1").
		Return(match.CompletedMatch{}, false, nil).
		Once()

	input := matchInput("", 0)
	input.Seed = nil
	state, err := svc.CreateMatch(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "generated-1", state.MatchID)
	require.Equal(t, int64(99), state.Seed)
}

func TestSimulationService_CreateMatch_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("invalid roster", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, matchmock.NewRepository(t), nil)
		input := matchInput("m-1", 1)
		input.Away.ID = input.Home.ID

		_, err := svc.CreateMatch(context.Background(), input)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown position", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, matchmock.NewRepository(t), nil)
		input := matchInput("m-1", 1)
		input.Home.Players[0].Position = "SWEEPER"

		_, err := svc.CreateMatch(context.Background(), input)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("duplicate live match", func(t *testing.T) {
		t.Parallel()

		matchRepo := matchmock.NewRepository(t)
		svc := newTestService(t, matchRepo, nil)
		matchRepo.
			On("GetCompleted", mock.Anything, "m-dup").
			Return(match.CompletedMatch{}, false, nil).
			Twice()

		_, err := svc.CreateMatch(context.Background(), matchInput("m-dup", 1))
		require.NoError(t, err)
		_, err = svc.CreateMatch(context.Background(), matchInput("m-dup", 1))
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("already completed", func(t *testing.T) {
		t.Parallel()

		matchRepo := matchmock.NewRepository(t)
		svc := newTestService(t, matchRepo, nil)
		matchRepo.
			On("GetCompleted", mock.Anything, "m-old").
			Return(match.CompletedMatch{MatchID: "m-old"}, true, nil).
			Once()

		_, err := svc.CreateMatch(context.Background(), matchInput("m-old", 1))
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("repository circuit open", func(t *testing.T) {
		t.Parallel()

		matchRepo := matchmock.NewRepository(t)
		svc := newTestService(t, matchRepo, nil)
		matchRepo.
			On("GetCompleted", mock.Anything, "m-1").
			Return(match.CompletedMatch{}, false, resilience.ErrCircuitOpen).
			Once()

		_, err := svc.CreateMatch(context.Background(), matchInput("m-1", 1))
		require.ErrorIs(t, err, ErrDependencyUnavailable)
	})
}

func TestSimulationService_MatchLifecycleUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	playerRepo := playermock.NewRepository(t)
	svc := newTestService(t, matchRepo, playerRepo)

	matchRepo.
		On("GetCompleted", mock.Anything, "m-life").
		Return(match.CompletedMatch{}, false, nil).
		Once()

	var mu sync.Mutex
	var saved match.CompletedMatch
	matchRepo.
		On("SaveCompleted", mock.Anything, mock.MatchedBy(func(r match.CompletedMatch) bool { return r.MatchID == "m-life" })).
		Run(func(args mock.Arguments) {
			mu.Lock()
			saved = args.Get(1).(match.CompletedMatch)
			mu.Unlock()
		}).
		Return(nil).
		Once()

	playerRepo.
		On("GetByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool { return len(ids) == 30 })).
		Return([]player.Player{
			{ID: "home-p01", TeamID: "home", Position: player.PositionGoalkeeper, BasePrice: 50, CurrentPrice: 50, FormRating: 6, OwnershipPercent: 10, Active: true},
			{ID: "away-p09", TeamID: "away", Position: player.PositionForward, BasePrice: 90, CurrentPrice: 90, FormRating: 6, OwnershipPercent: 40, Active: true},
			{ID: "away-p15", TeamID: "away", Position: player.PositionForward, BasePrice: 40, CurrentPrice: 40, Active: false},
		}, nil).
		Once()
	playerRepo.
		On("UpdateValuation", mock.Anything, mock.MatchedBy(func(v player.Valuation) bool {
			return (v.PlayerID == "home-p01" || v.PlayerID == "away-p09") && v.CurrentPrice > 0 && v.FormRating >= 1
		})).
		Return(nil).
		Twice()

	_, err := svc.CreateMatch(ctx, matchInput("m-life", 7))
	require.NoError(t, err)

	state, err := svc.StartMatch(ctx, "m-life")
	require.NoError(t, err)
	require.Equal(t, match.StatusInProgress, state.Status)

	waitForCompletion(svc)

	mu.Lock()
	record := saved
	mu.Unlock()
	require.Equal(t, "m-life", record.MatchID)
	require.Len(t, record.Players, 30)
	require.Equal(t, 92, record.TerminalMinute)
	home, away := match.Score(record.Events, record.HomeTeamID, record.AwayTeamID)
	require.Equal(t, home, record.HomeScore)
	require.Equal(t, away, record.AwayScore)

	_, live := svc.registry.Get("m-life")
	require.False(t, live, "completed match should leave the registry after persisting")

	matchRepo.
		On("GetCompleted", mock.Anything, "m-life").
		Return(record, true, nil)

	final, err := svc.GetState(ctx, "m-life")
	require.NoError(t, err)
	require.Equal(t, match.StatusCompleted, final.Status)
	require.Equal(t, record.HomeScore, final.HomeScore)

	first, err := svc.MatchPoints(ctx, "m-life")
	require.NoError(t, err)
	require.Len(t, first, 30)
	second, err := svc.MatchPoints(ctx, "m-life")
	require.NoError(t, err)
	require.Equal(t, first, second)

	gw, err := svc.GameweekPoints(ctx, GameweekInput{
		Gameweek: 3,
		MatchIDs: []string{"m-life"},
		Lineup: scoring.Lineup{
			TeamID:        "fantasy-1",
			StarterIDs:    []string{"home-p01", "away-p09"},
			CaptainID:     "away-p09",
			ViceCaptainID: "home-p01",
		},
	})
	require.NoError(t, err)
	var want int
	for _, r := range first {
		switch r.PlayerID {
		case "home-p01":
			want += r.Total
		case "away-p09":
			want += 2 * r.Total
		}
	}
	require.Equal(t, want, gw.TotalPoints)

	_, err = svc.StartMatch(ctx, "m-life")
	require.ErrorIs(t, err, ErrConflict)
}

func TestSimulationService_PersistFailureKeepsFinalState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	playerRepo := playermock.NewRepository(t)
	svc := newTestService(t, matchRepo, playerRepo)

	matchRepo.
		On("GetCompleted", mock.Anything, "m-fail").
		Return(match.CompletedMatch{}, false, nil).
		Once()
	matchRepo.
		On("SaveCompleted", mock.Anything, mock.Anything).
		Return(errors.New("db down")).
		Once()

	_, err := svc.CreateMatch(ctx, matchInput("m-fail", 3))
	require.NoError(t, err)
	_, err = svc.StartMatch(ctx, "m-fail")
	require.NoError(t, err)
	waitForCompletion(svc)

	state, err := svc.GetState(ctx, "m-fail")
	require.NoError(t, err)
	require.Equal(t, match.StatusCompleted, state.Status)

	points, err := svc.MatchPoints(ctx, "m-fail")
	require.NoError(t, err)
	require.Len(t, points, 30)
}

func TestSimulationService_StopAndResume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	svc, err := NewSimulationService(matchRepo, nil, nil, SimulationOptions{TickInterval: time.Hour}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	matchRepo.
		On("GetCompleted", mock.Anything, "m-stop").
		Return(match.CompletedMatch{}, false, nil).
		Once()

	_, err = svc.CreateMatch(ctx, matchInput("m-stop", 5))
	require.NoError(t, err)

	_, err = svc.StopMatch(ctx, "m-stop")
	require.ErrorIs(t, err, ErrConflict, "scheduled match has no driver to stop")

	_, err = svc.StartMatch(ctx, "m-stop")
	require.NoError(t, err)
	_, err = svc.StartMatch(ctx, "m-stop")
	require.ErrorIs(t, err, ErrConflict, "driver already running")

	state, err := svc.StopMatch(ctx, "m-stop")
	require.NoError(t, err)
	require.Equal(t, match.StatusInProgress, state.Status)
	svc.runner.Wait()

	_, err = svc.StartMatch(ctx, "m-stop")
	require.NoError(t, err, "stopped match can be resumed")
}

func TestSimulationService_ReturnedStateIsACopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	svc, err := NewSimulationService(matchRepo, nil, nil, SimulationOptions{TickInterval: time.Hour}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	matchRepo.
		On("GetCompleted", mock.Anything, "m-copy").
		Return(match.CompletedMatch{}, false, nil).
		Once()

	_, err = svc.CreateMatch(ctx, matchInput("m-copy", 9))
	require.NoError(t, err)
	_, err = svc.StartMatch(ctx, "m-copy")
	require.NoError(t, err)

	state, err := svc.GetState(ctx, "m-copy")
	require.NoError(t, err)
	require.Contains(t, state.Statistics, "away-p01")
	state.Statistics["home-p01"] = matchstats.Statistics{GoalsScored: 7}
	delete(state.Statistics, "away-p01")

	again, err := svc.GetState(ctx, "m-copy")
	require.NoError(t, err)
	require.NotEqual(t, uint32(7), again.Statistics["home-p01"].GoalsScored)
	require.Contains(t, again.Statistics, "away-p01")

	listed := svc.ListMatches(ctx)
	require.Len(t, listed, 1)
	delete(listed[0].Statistics, "home-p02")

	again, err = svc.GetState(ctx, "m-copy")
	require.NoError(t, err)
	require.Contains(t, again.Statistics, "home-p02")
}

func TestSimulationService_UnknownMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	svc := newTestService(t, matchRepo, nil)

	matchRepo.
		On("GetCompleted", mock.Anything, "missing").
		Return(match.CompletedMatch{}, false, nil)

	_, err := svc.GetState(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.StartMatch(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.StopMatch(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.MatchPoints(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSimulationService_ListEventsAfterSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	svc := newTestService(t, matchRepo, nil)

	record := match.CompletedMatch{
		MatchID:    "m-ev",
		HomeTeamID: "home",
		AwayTeamID: "away",
		Events: []match.Event{
			{Sequence: 1, Minute: 10, Type: match.EventSave, TeamID: "away", PlayerID: "away-p01"},
			{Sequence: 2, Minute: 33, Type: match.EventGoal, TeamID: "home", PlayerID: "home-p09"},
			{Sequence: 3, Minute: 70, Type: match.EventCard, TeamID: "away", PlayerID: "away-p02", Detail: match.DetailYellowCard},
		},
	}
	matchRepo.
		On("GetCompleted", mock.Anything, "m-ev").
		Return(record, true, nil)

	events, err := svc.ListEvents(ctx, "m-ev", 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, 2, events[0].Sequence)

	events, err = svc.ListEvents(ctx, "m-ev", 3)
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = svc.ListEvents(ctx, "m-ev", -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSimulationService_ComputePoints(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, nil)

	tests := []struct {
		name    string
		input   ComputePointsInput
		want    int
		wantErr error
	}{
		{
			name:  "goalkeeper scenario",
			input: ComputePointsInput{Position: "gk", Stats: matchstats.Counts{MinutesPlayed: 90, GoalsConceded: 3, Saves: 9}},
			want:  4,
		},
		{
			name:  "forward brace",
			input: ComputePointsInput{Position: "FWD", Stats: matchstats.Counts{MinutesPlayed: 90, GoalsScored: 2}},
			want:  10,
		},
		{
			name:    "negative count",
			input:   ComputePointsInput{Position: "MID", Stats: matchstats.Counts{GoalsScored: -1}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown position",
			input:   ComputePointsInput{Position: "COACH", Stats: matchstats.Counts{MinutesPlayed: 90}},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ComputePoints(context.Background(), tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Total)
			require.Equal(t, got.Total, got.Breakdown.Total())
		})
	}
}

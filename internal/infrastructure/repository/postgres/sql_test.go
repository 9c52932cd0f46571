package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("select completed match: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(fakeErr("pq: relation players does not exist")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestSelectCompletedMatchQuery_FetchesSingleRow(t *testing.T) {
	query, args, err := selectCompletedMatchQuery("m1")
	if err != nil {
		t.Fatalf("build select completed match query: %v", err)
	}
	if !strings.HasSuffix(query, " FROM completed_matches WHERE match_id = $1 LIMIT 1") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 || args[0] != "m1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestCompletedMatchRows_RoundTrip(t *testing.T) {
	completedAt := time.Date(2026, 1, 1, 16, 50, 0, 0, time.UTC)
	record := match.CompletedMatch{
		MatchID:        "m-1",
		HomeTeamID:     "home",
		AwayTeamID:     "away",
		Seed:           42,
		TerminalMinute: 93,
		HomeScore:      1,
		AwayScore:      1,
		Events: []match.Event{
			{Sequence: 1, Minute: 10, Type: match.EventGoal, TeamID: "home", PlayerID: "h9", AssistPlayerID: "h8"},
			{Sequence: 2, Minute: 55, Type: match.EventPenalty, TeamID: "away", PlayerID: "a9", RelatedPlayerID: "h1", Detail: match.DetailPenaltySaved},
			{Sequence: 3, Minute: 80, Type: match.EventGoal, TeamID: "home", PlayerID: "h4", Detail: match.DetailOwnGoal},
		},
		Players: []match.PlayerRecord{
			{PlayerID: "h1", TeamID: "home", Position: player.PositionGoalkeeper, Statistics: matchstats.Statistics{MinutesPlayed: 93, PenaltiesSaved: 1, Saves: 1, GoalsConceded: 1}},
			{PlayerID: "h9", TeamID: "home", Position: player.PositionForward, Statistics: matchstats.Statistics{MinutesPlayed: 93, GoalsScored: 1, Bonus: -2}},
		},
		CompletedAt: completedAt,
	}

	row, statRows, err := completedMatchToRows(record)
	if err != nil {
		t.Fatalf("to rows: %v", err)
	}
	if len(statRows) != 2 || statRows[0].MatchID != "m-1" || statRows[1].Counts.Bonus != -2 {
		t.Fatalf("unexpected stat rows: %+v", statRows)
	}

	got, err := rowsToCompletedMatch(row, statRows)
	if err != nil {
		t.Fatalf("from rows: %v", err)
	}
	if got.Seed != 42 || got.TerminalMinute != 93 || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("unexpected match header: %+v", got)
	}
	if len(got.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got.Events))
	}
	for i := range record.Events {
		if got.Events[i] != record.Events[i] {
			t.Fatalf("event %d mismatch:\nwant %+v\ngot  %+v", i, record.Events[i], got.Events[i])
		}
	}
	if got.Players[0].Statistics != record.Players[0].Statistics || got.Players[1].Position != player.PositionForward {
		t.Fatalf("unexpected players: %+v", got.Players)
	}
}

func TestRowsToCompletedMatch_RejectsCorruptRows(t *testing.T) {
	t.Run("bad events document", func(t *testing.T) {
		_, err := rowsToCompletedMatch(completedMatchTableModel{MatchID: "m-1", Events: "{not json"}, nil)
		if err == nil {
			t.Fatalf("expected decode error")
		}
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := rowsToCompletedMatch(completedMatchTableModel{MatchID: "m-1", Events: "[]"}, []matchPlayerStatsTableModel{
			{MatchID: "m-1", PlayerID: "p1", Counts: matchstats.Counts{Saves: -1}},
		})
		if err == nil {
			t.Fatalf("expected scoring input error")
		}
	})
}

func TestPlayerRows(t *testing.T) {
	row := playerToRow(player.Player{ID: "p1", TeamID: "t1", Position: player.PositionMidfielder, BasePrice: 65, CurrentPrice: 70, FormRating: 7.456, OwnershipPercent: 12.5, Active: true})
	if !row.FormRating.Equal(decimal.RequireFromString("7.46")) {
		t.Fatalf("expected form rating rounded to 7.46, got %s", row.FormRating)
	}

	got := rowToPlayer(row)
	if got.FormRating != 7.46 || got.OwnershipPercent != 12.5 || got.Position != player.PositionMidfielder || !got.Active {
		t.Fatalf("unexpected player: %+v", got)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

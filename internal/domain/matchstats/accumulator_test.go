package matchstats

import (
	"errors"
	"testing"
)

type contributions []Contribution

func (c contributions) Contributions() []Contribution { return c }

func newTestBook() *Book {
	book := NewBook()
	book.Add(NewAccumulator("h-gk", "home", true))
	book.Add(NewAccumulator("h-fw", "home", true))
	book.Add(NewAccumulator("h-sub", "home", false))
	book.Add(NewAccumulator("a-gk", "away", true))
	return book
}

func TestBook_ApplyRecordsEveryContribution(t *testing.T) {
	book := newTestBook()

	err := book.Apply(contributions{
		{PlayerID: "h-fw", Role: RoleScorer},
		{PlayerID: "h-gk", Role: RoleAssist},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	fw, _ := book.Get("h-fw")
	gk, _ := book.Get("h-gk")
	if fw.Statistics().GoalsScored != 1 {
		t.Fatalf("expected 1 goal, got %d", fw.Statistics().GoalsScored)
	}
	if gk.Statistics().Assists != 1 {
		t.Fatalf("expected 1 assist, got %d", gk.Statistics().Assists)
	}
}

func TestBook_ApplyUnknownActorLeavesBookUntouched(t *testing.T) {
	book := newTestBook()

	err := book.Apply(contributions{
		{PlayerID: "h-fw", Role: RoleScorer},
		{PlayerID: "ghost", Role: RoleAssist},
	})
	if !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}

	fw, _ := book.Get("h-fw")
	if fw.Statistics().GoalsScored != 0 {
		t.Fatalf("expected no partial mutation, got %d goals", fw.Statistics().GoalsScored)
	}
}

func TestBook_TickMinutesOnlyCreditsPlayersOnPitch(t *testing.T) {
	book := newTestBook()
	book.TickMinutes(30)

	if err := book.Apply(contributions{
		{PlayerID: "h-fw", Role: RoleSubstitutedOff},
		{PlayerID: "h-sub", Role: RoleSubstitutedOn},
	}); err != nil {
		t.Fatalf("apply substitution: %v", err)
	}
	book.TickMinutes(60)

	stats := book.Snapshot()
	if got := stats["h-fw"].MinutesPlayed; got != 30 {
		t.Fatalf("expected substituted player frozen at 30 minutes, got %d", got)
	}
	if got := stats["h-sub"].MinutesPlayed; got != 60 {
		t.Fatalf("expected replacement at 60 minutes, got %d", got)
	}
	if got := stats["h-gk"].MinutesPlayed; got != 90 {
		t.Fatalf("expected keeper at 90 minutes, got %d", got)
	}
}

func TestBook_RedCardRemovesPlayerFromPitch(t *testing.T) {
	book := newTestBook()
	if err := book.Apply(contributions{{PlayerID: "h-fw", Role: RoleRedCard}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	book.TickMinutes(10)

	fw, _ := book.Get("h-fw")
	if fw.OnPitch() {
		t.Fatalf("expected sent-off player off the pitch")
	}
	if fw.Statistics().MinutesPlayed != 0 {
		t.Fatalf("expected no minutes after red card, got %d", fw.Statistics().MinutesPlayed)
	}
}

func TestBook_PenaltySavedCountsAsSave(t *testing.T) {
	book := newTestBook()
	if err := book.Apply(contributions{{PlayerID: "a-gk", Role: RolePenaltySaved}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	gk, _ := book.Get("a-gk")
	stats := gk.Statistics()
	if stats.PenaltiesSaved != 1 || stats.Saves != 1 {
		t.Fatalf("unexpected keeper stats: %+v", stats)
	}
}

func TestBook_ConcedeGoalChargesOnlyOnPitchPlayers(t *testing.T) {
	book := newTestBook()
	book.ConcedeGoal("home")

	stats := book.Snapshot()
	if stats["h-gk"].GoalsConceded != 1 || stats["h-fw"].GoalsConceded != 1 {
		t.Fatalf("expected on-pitch home players to concede")
	}
	if stats["h-sub"].GoalsConceded != 0 {
		t.Fatalf("expected bench player untouched, got %d", stats["h-sub"].GoalsConceded)
	}
	if stats["a-gk"].GoalsConceded != 0 {
		t.Fatalf("expected away keeper untouched")
	}
}

func TestBook_FinalizeAwardsCleanSheetAndFreezes(t *testing.T) {
	book := newTestBook()
	book.TickMinutes(90)
	book.ConcedeGoal("away")
	book.Finalize(60)

	stats := book.Snapshot()
	if stats["h-gk"].CleanSheets != 1 {
		t.Fatalf("expected home keeper clean sheet")
	}
	if stats["a-gk"].CleanSheets != 0 {
		t.Fatalf("expected no clean sheet after conceding")
	}
	if stats["h-sub"].CleanSheets != 0 {
		t.Fatalf("expected no clean sheet without minutes")
	}

	if !book.Frozen() {
		t.Fatalf("expected frozen book")
	}
	if err := book.Apply(contributions{{PlayerID: "h-fw", Role: RoleScorer}}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	book.TickMinutes(5)
	book.ConcedeGoal("home")
	if after := book.Snapshot(); after["h-gk"] != stats["h-gk"] {
		t.Fatalf("expected frozen statistics, got %+v", after["h-gk"])
	}

	gk, _ := book.Get("h-gk")
	if err := gk.Record(RoleSave); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected accumulator frozen, got %v", err)
	}
}

func TestBook_FinalizeCleanSheetThreshold(t *testing.T) {
	tests := []struct {
		name     string
		minutes  uint32
		conceded bool
		want     uint32
	}{
		{name: "one minute short", minutes: DefaultCleanSheetMinutes - 1, want: 0},
		{name: "exactly the threshold", minutes: DefaultCleanSheetMinutes, want: 1},
		{name: "full match", minutes: 90, want: 1},
		{name: "full match conceding", minutes: 90, conceded: true, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			book := NewBook()
			book.Add(NewAccumulator("h-gk", "home", true))
			book.TickMinutes(tc.minutes)
			if tc.conceded {
				book.ConcedeGoal("home")
			}
			book.Finalize(DefaultCleanSheetMinutes)

			if got := book.Snapshot()["h-gk"].CleanSheets; got != tc.want {
				t.Fatalf("expected %d clean sheets, got %d", tc.want, got)
			}
		})
	}
}

func TestBook_PlayerIDsSorted(t *testing.T) {
	book := newTestBook()
	ids := book.PlayerIDs()
	want := []string{"a-gk", "h-fw", "h-gk", "h-sub"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected ids: %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected ids order: %v", ids)
		}
	}
}

func TestCounts_Statistics(t *testing.T) {
	tests := []struct {
		name    string
		in      Counts
		wantErr bool
	}{
		{name: "valid", in: Counts{MinutesPlayed: 90, GoalsScored: 2, Bonus: -3}},
		{name: "negative goals", in: Counts{GoalsScored: -1}, wantErr: true},
		{name: "negative minutes", in: Counts{MinutesPlayed: -5}, wantErr: true},
		{name: "huge saves", in: Counts{Saves: 1 << 20}, wantErr: true},
		{name: "bonus out of range", in: Counts{Bonus: 1 << 20}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stats, err := tc.in.Statistics()
			if tc.wantErr {
				if !errors.Is(err, ErrScoringInput) {
					t.Fatalf("expected ErrScoringInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stats.Counts() != tc.in {
				t.Fatalf("round trip mismatch: %+v", stats.Counts())
			}
		})
	}
}

package scoring

import "testing"

func TestGameweekTotal(t *testing.T) {
	lineup := Lineup{
		TeamID:        "fantasy-1",
		StarterIDs:    []string{"p1", "p2", "p3"},
		BenchIDs:      []string{"p4"},
		CaptainID:     "p1",
		ViceCaptainID: "p2",
	}

	t.Run("captain doubled", func(t *testing.T) {
		results := []Result{
			{PlayerID: "p1", MinutesPlayed: 90, Total: 6},
			{PlayerID: "p2", MinutesPlayed: 90, Total: 3},
			{PlayerID: "p3", MinutesPlayed: 90, Total: 2},
			{PlayerID: "p4", MinutesPlayed: 90, Total: 9},
		}

		out := GameweekTotal(lineup, 7, results)
		if out.TotalPoints != 17 {
			t.Fatalf("unexpected total: %d", out.TotalPoints)
		}
		if out.Gameweek != 7 || out.TeamID != "fantasy-1" {
			t.Fatalf("unexpected identity: %+v", out)
		}
		if len(out.Players) != 4 {
			t.Fatalf("expected starters and bench, got %d rows", len(out.Players))
		}
		bench := out.Players[3]
		if bench.IsStarter || bench.CountedPoints != 0 || bench.BasePoints != 9 {
			t.Fatalf("unexpected bench row: %+v", bench)
		}
	})

	t.Run("vice captain doubled when captain did not play", func(t *testing.T) {
		results := []Result{
			{PlayerID: "p2", MinutesPlayed: 90, Total: 3},
			{PlayerID: "p3", MinutesPlayed: 90, Total: 2},
		}

		out := GameweekTotal(lineup, 7, results)
		if out.TotalPoints != 8 {
			t.Fatalf("unexpected total: %d", out.TotalPoints)
		}
		if out.Players[1].Multiplier != 2 {
			t.Fatalf("expected vice captain multiplier 2, got %d", out.Players[1].Multiplier)
		}
	})

	t.Run("sums across matches of the gameweek", func(t *testing.T) {
		results := []Result{
			{MatchID: "m1", PlayerID: "p1", MinutesPlayed: 90, Total: 2},
			{MatchID: "m2", PlayerID: "p1", MinutesPlayed: 90, Total: -1},
		}

		out := GameweekTotal(lineup, 7, results)
		if out.TotalPoints != 2 {
			t.Fatalf("unexpected total: %d", out.TotalPoints)
		}
	})
}

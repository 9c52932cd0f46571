package match

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

func validFixture() Fixture {
	return Fixture{
		ID: "m-1",
		Home: Team{ID: "home", Players: []LineupEntry{
			{PlayerID: "h1", Position: player.PositionGoalkeeper, Starting: true},
			{PlayerID: "h2", Position: player.PositionForward, Starting: true},
			{PlayerID: "h3", Position: player.PositionMidfielder},
		}},
		Away: Team{ID: "away", Players: []LineupEntry{
			{PlayerID: "a1", Position: player.PositionGoalkeeper, Starting: true},
		}},
		Seed: 7,
	}
}

func TestFixture_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *Fixture)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Fixture) {}},
		{name: "missing id", mutate: func(f *Fixture) { f.ID = "" }, wantErr: true},
		{name: "same teams", mutate: func(f *Fixture) { f.Away.ID = "home" }, wantErr: true},
		{name: "duplicate player across teams", mutate: func(f *Fixture) { f.Away.Players[0].PlayerID = "h1" }, wantErr: true},
		{name: "unknown position", mutate: func(f *Fixture) { f.Home.Players[1].Position = "WING" }, wantErr: true},
		{name: "no starters", mutate: func(f *Fixture) { f.Away.Players[0].Starting = false }, wantErr: true},
		{name: "too many starters", mutate: func(f *Fixture) {
			for i := 0; i < MaxStartersPerTeam; i++ {
				f.Away.Players = append(f.Away.Players, LineupEntry{
					PlayerID: "extra-" + string(rune('a'+i)),
					Position: player.PositionDefender,
					Starting: true,
				})
			}
		}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := validFixture()
			tc.mutate(&f)
			err := f.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidRoster) {
				t.Fatalf("expected ErrInvalidRoster, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTeam_Starters(t *testing.T) {
	starters := validFixture().Home.Starters()
	if len(starters) != 2 || starters[0].PlayerID != "h1" || starters[1].PlayerID != "h2" {
		t.Fatalf("unexpected starters: %+v", starters)
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{name: "goal", event: Event{Type: EventGoal, TeamID: "home", PlayerID: "h2", AssistPlayerID: "h3"}},
		{name: "self assist", event: Event{Type: EventGoal, TeamID: "home", PlayerID: "h2", AssistPlayerID: "h2"}, wantErr: true},
		{name: "own goal with assist", event: Event{Type: EventGoal, TeamID: "home", PlayerID: "h2", AssistPlayerID: "h3", Detail: DetailOwnGoal}, wantErr: true},
		{name: "missing player", event: Event{Type: EventSave, TeamID: "home"}, wantErr: true},
		{name: "negative minute", event: Event{Type: EventSave, TeamID: "home", PlayerID: "h1", Minute: -1}, wantErr: true},
		{name: "unknown card", event: Event{Type: EventCard, TeamID: "home", PlayerID: "h2", Detail: "green"}, wantErr: true},
		{name: "saved penalty without keeper", event: Event{Type: EventPenalty, TeamID: "home", PlayerID: "h2", Detail: DetailPenaltySaved}, wantErr: true},
		{name: "missed penalty", event: Event{Type: EventPenalty, TeamID: "home", PlayerID: "h2", Detail: DetailPenaltyMissed}},
		{name: "self substitution", event: Event{Type: EventSubstitution, TeamID: "home", PlayerID: "h2", RelatedPlayerID: "h2"}, wantErr: true},
		{name: "unknown type", event: Event{Type: "CORNER", TeamID: "home", PlayerID: "h2"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvent_Contributions(t *testing.T) {
	saved := Event{Type: EventPenalty, TeamID: "home", PlayerID: "h2", RelatedPlayerID: "a1", Detail: DetailPenaltySaved}
	got := saved.Contributions()
	want := []matchstats.Contribution{
		{PlayerID: "h2", Role: matchstats.RolePenaltyMissed},
		{PlayerID: "a1", Role: matchstats.RolePenaltySaved},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected contributions: %+v", got)
	}

	ownGoal := Event{Type: EventGoal, TeamID: "home", PlayerID: "h2", Detail: DetailOwnGoal}
	if got := ownGoal.Contributions(); len(got) != 1 || got[0].Role != matchstats.RoleOwnGoal {
		t.Fatalf("unexpected own goal contributions: %+v", got)
	}
}

func TestScore(t *testing.T) {
	events := []Event{
		{Type: EventGoal, TeamID: "home", PlayerID: "h2"},
		{Type: EventSave, TeamID: "away", PlayerID: "a1"},
		{Type: EventGoal, TeamID: "home", PlayerID: "h2", Detail: DetailOwnGoal},
		{Type: EventGoal, TeamID: "away", PlayerID: "a1", Detail: DetailPenaltyGoal},
		{Type: EventPenalty, TeamID: "home", PlayerID: "h2", Detail: DetailPenaltyMissed},
	}

	home, away := Score(events, "home", "away")
	if home != 1 || away != 2 {
		t.Fatalf("unexpected score: %d-%d", home, away)
	}
}

func TestSnapshot_CloneSharesNothing(t *testing.T) {
	original := Snapshot{
		MatchID:    "m-1",
		Events:     []Event{{Sequence: 1, Type: EventSave, TeamID: "away", PlayerID: "a1"}},
		Statistics: map[string]matchstats.Statistics{"a1": {Saves: 1}},
	}

	clone := original.Clone()
	clone.Events[0].PlayerID = "a2"
	clone.Statistics["a1"] = matchstats.Statistics{Saves: 9}
	clone.Statistics["h1"] = matchstats.Statistics{}

	if original.Events[0].PlayerID != "a1" {
		t.Fatalf("clone shares events with original")
	}
	if original.Statistics["a1"].Saves != 1 || len(original.Statistics) != 1 {
		t.Fatalf("clone shares statistics with original: %+v", original.Statistics)
	}
}

func TestCompletedMatch_SnapshotCopiesEvents(t *testing.T) {
	record := CompletedMatch{
		MatchID: "m-1",
		Events:  []Event{{Sequence: 1, Type: EventSave, TeamID: "away", PlayerID: "a1"}},
	}

	snapshot := record.Snapshot()
	snapshot.Events[0].PlayerID = "a2"
	if record.Events[0].PlayerID != "a1" {
		t.Fatalf("snapshot shares events with the completed record")
	}
}

package scoring

// GameweekTotal sums one fantasy lineup over every match result of the
// gameweek. The captain counts double; if the captain did not play at all the
// vice-captain counts double instead. Bench players are listed but score 0.
func GameweekTotal(item Lineup, gameweek int, results []Result) GameweekPoints {
	points := make(map[string]int)
	minutes := make(map[string]uint32)
	for _, r := range results {
		points[r.PlayerID] += r.Total
		minutes[r.PlayerID] += r.MinutesPlayed
	}

	viceGetsDouble := minutes[item.CaptainID] == 0 && minutes[item.ViceCaptainID] > 0

	out := GameweekPoints{
		TeamID:   item.TeamID,
		Gameweek: gameweek,
		Players:  make([]PlayerPoints, 0, len(item.StarterIDs)+len(item.BenchIDs)),
	}
	for _, playerID := range item.StarterIDs {
		row := PlayerPoints{
			PlayerID:      playerID,
			IsStarter:     true,
			IsCaptain:     playerID == item.CaptainID,
			IsViceCaptain: playerID == item.ViceCaptainID,
			Multiplier:    1,
			BasePoints:    points[playerID],
		}
		switch {
		case row.IsCaptain && minutes[playerID] > 0:
			row.Multiplier = 2
		case row.IsViceCaptain && viceGetsDouble:
			row.Multiplier = 2
		}
		row.CountedPoints = row.BasePoints * row.Multiplier
		out.TotalPoints += row.CountedPoints
		out.Players = append(out.Players, row)
	}

	for _, playerID := range item.BenchIDs {
		out.Players = append(out.Players, PlayerPoints{
			PlayerID:      playerID,
			IsCaptain:     playerID == item.CaptainID,
			IsViceCaptain: playerID == item.ViceCaptainID,
			Multiplier:    1,
			BasePoints:    points[playerID],
		})
	}

	return out
}

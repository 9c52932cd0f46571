package memory

import (
	"fmt"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

type seedClub struct {
	id    string
	names []string
}

var seedSquadPositions = []player.Position{
	player.PositionGoalkeeper,
	player.PositionDefender, player.PositionDefender, player.PositionDefender, player.PositionDefender,
	player.PositionMidfielder, player.PositionMidfielder, player.PositionMidfielder,
	player.PositionForward, player.PositionForward, player.PositionForward,
	player.PositionGoalkeeper, player.PositionDefender, player.PositionMidfielder, player.PositionForward,
}

var seedBasePrice = map[player.Position]int64{
	player.PositionGoalkeeper: 45,
	player.PositionDefender:   50,
	player.PositionMidfielder: 65,
	player.PositionForward:    80,
}

// SeedPlayers returns two full squads so the in-memory mode has players to
// revalue. Ids follow "<club>-p<nn>" in squad order.
func SeedPlayers() []player.Player {
	clubs := []seedClub{
		{id: "idn-persija", names: []string{
			"Andritany Ardhiyasa", "Hansamu Yama", "Rizky Ridho", "Ondrej Kudela", "Firza Andika",
			"Maciej Gajos", "Syahrian Abimanyu", "Hanif Sjahbandi", "Gustavo Almeida", "Witan Sulaeman",
			"Marko Simic", "Cahya Supriadi", "Dony Tri Pamungkas", "Resky Fandi", "Ryo Matsumura",
		}},
		{id: "idn-persib", names: []string{
			"Teja Paku Alam", "Nick Kuipers", "Alberto Rodriguez", "Achmad Jufriyanto", "Henhen Herdiana",
			"Marc Klok", "Dedi Kusnandar", "Beckham Putra", "David da Silva", "Ciro Alves",
			"Ezra Walian", "Kevin Ray Mendoza", "Zalnando", "Ricky Kambuaya", "Mailson Lima",
		}},
	}

	var out []player.Player
	for _, club := range clubs {
		for i, pos := range seedSquadPositions {
			price := seedBasePrice[pos]
			out = append(out, player.Player{
				ID:               fmt.Sprintf("%s-p%02d", club.id, i+1),
				TeamID:           club.id,
				Name:             club.names[i],
				Position:         pos,
				BasePrice:        price,
				CurrentPrice:     price,
				FormRating:       6,
				OwnershipPercent: float64((i*7)%40 + 5),
				Active:           true,
			})
		}
	}
	return out
}

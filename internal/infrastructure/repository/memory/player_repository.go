package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
)

type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	items := make(map[string]player.Player, len(players))
	for _, p := range players {
		items[p.ID] = p
	}

	return &PlayerRepository{items: items}
}

// GetByIDs returns the known players in the order asked; unknown ids are skipped.
func (r *PlayerRepository) GetByIDs(_ context.Context, playerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := r.items[id]
		if !ok {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

func (r *PlayerRepository) UpdateValuation(_ context.Context, v player.Valuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[v.PlayerID]
	if !ok {
		return fmt.Errorf("player %s not found", v.PlayerID)
	}
	p.FormRating = v.FormRating
	p.CurrentPrice = v.CurrentPrice
	r.items[v.PlayerID] = p

	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
)

// MatchRepository keeps completed match records for the lifetime of the process.
type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.CompletedMatch
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{items: make(map[string]match.CompletedMatch)}
}

// SaveCompleted is idempotent per match id; a repeated save overwrites.
func (r *MatchRepository) SaveCompleted(_ context.Context, record match.CompletedMatch) error {
	record.Events = append([]match.Event(nil), record.Events...)
	record.Players = append([]match.PlayerRecord(nil), record.Players...)

	r.mu.Lock()
	r.items[record.MatchID] = record
	r.mu.Unlock()

	return nil
}

func (r *MatchRepository) GetCompleted(_ context.Context, matchID string) (match.CompletedMatch, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[matchID]
	if !ok {
		return match.CompletedMatch{}, false, nil
	}

	return record, true, nil
}

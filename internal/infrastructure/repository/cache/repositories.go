package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	basecache "github.com/riskibarqy/fantasy-matchengine/internal/platform/cache"
)

const playerKeyPrefix = "player:ids:"

// PlayerRepository caches roster lookups in front of another repository.
// Any valuation update drops every cached lookup.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store[[]player.Player]
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store[[]player.Player]) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return r.next.GetByIDs(ctx, playerIDs)
	}

	items, err := r.cache.GetOrLoad(ctx, playerIDsKey(playerIDs), func(ctx context.Context) ([]player.Player, error) {
		items, err := r.next.GetByIDs(ctx, sortedCopy(playerIDs))
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]player.Player, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *PlayerRepository) UpdateValuation(ctx context.Context, valuation player.Valuation) error {
	if err := r.next.UpdateValuation(ctx, valuation); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, playerKeyPrefix)
	return nil
}

func playerIDsKey(playerIDs []string) string {
	return playerKeyPrefix + strings.Join(sortedCopy(playerIDs), ",")
}

func sortedCopy(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}

var _ player.Repository = (*PlayerRepository)(nil)

package player

import "context"

// Valuation is the post-match price and form update for one player.
type Valuation struct {
	PlayerID     string
	FormRating   float64
	CurrentPrice int64
}

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	UpdateValuation(ctx context.Context, valuation Valuation) error
}

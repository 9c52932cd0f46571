package match

import "context"

// Repository stores the outbound record of completed matches.
type Repository interface {
	SaveCompleted(ctx context.Context, record CompletedMatch) error
	GetCompleted(ctx context.Context, matchID string) (CompletedMatch, bool, error)
}

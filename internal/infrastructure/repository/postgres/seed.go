package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-matchengine/internal/infrastructure/repository/memory"
	qb "github.com/riskibarqy/fantasy-matchengine/internal/platform/querybuilder"
)

// BootstrapSeed loads the demo squads into an empty players table.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM players`); err != nil {
		return fmt.Errorf("count players for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := memory.SeedPlayers()
	rows := make([]playerTableModel, 0, len(seed))
	for _, p := range seed {
		rows = append(rows, playerToRow(p))
	}

	builder, err := qb.InsertModels("players", rows)
	if err != nil {
		return fmt.Errorf("build seed players query: %w", err)
	}
	query, args, err := builder.OnConflictUpdate([]string{"id"}).ToSQL()
	if err != nil {
		return fmt.Errorf("build seed players query: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed players: %w", err)
	}

	return nil
}

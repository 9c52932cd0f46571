package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	qb "github.com/riskibarqy/fantasy-matchengine/internal/platform/querybuilder"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/resilience"
)

type PlayerRepository struct {
	db      *sqlx.DB
	breaker *resilience.CircuitBreaker
}

var playerSelectColumns = qb.Columns(playerTableModel{})

func NewPlayerRepository(db *sqlx.DB, breaker *resilience.CircuitBreaker) *PlayerRepository {
	return &PlayerRepository{db: db, breaker: breaker}
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.In("id", playerIDs)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	var rows []playerTableModel
	err = r.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("select players by ids: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToPlayer(row))
	}

	return out, nil
}

func (r *PlayerRepository) UpdateValuation(ctx context.Context, v player.Valuation) error {
	query, args, err := qb.Update("players").
		Set("form_rating", decimal.NewFromFloat(v.FormRating).Round(2)).
		Set("current_price", v.CurrentPrice).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", v.PlayerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player valuation query: %w", err)
	}

	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update player valuation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update player valuation rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("player %s not found", v.PlayerID)
		}
		return nil
	})
}

func rowToPlayer(row playerTableModel) player.Player {
	return player.Player{
		ID:               row.ID,
		TeamID:           row.TeamID,
		Name:             row.Name,
		Position:         player.Position(row.Position),
		BasePrice:        row.BasePrice,
		CurrentPrice:     row.CurrentPrice,
		FormRating:       row.FormRating.InexactFloat64(),
		OwnershipPercent: row.OwnershipPercent.InexactFloat64(),
		Active:           row.IsActive,
	}
}

func playerToRow(p player.Player) playerTableModel {
	return playerTableModel{
		ID:               p.ID,
		TeamID:           p.TeamID,
		Name:             p.Name,
		Position:         string(p.Position),
		BasePrice:        p.BasePrice,
		CurrentPrice:     p.CurrentPrice,
		FormRating:       decimal.NewFromFloat(p.FormRating).Round(2),
		OwnershipPercent: decimal.NewFromFloat(p.OwnershipPercent).Round(2),
		IsActive:         p.Active,
	}
}

var _ player.Repository = (*PlayerRepository)(nil)

package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	qb "github.com/riskibarqy/fantasy-matchengine/internal/platform/querybuilder"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/resilience"
)

type MatchRepository struct {
	db      *sqlx.DB
	breaker *resilience.CircuitBreaker
}

var completedMatchColumns = qb.Columns(completedMatchTableModel{})

var matchPlayerStatsColumns = qb.Columns(matchPlayerStatsTableModel{})

func NewMatchRepository(db *sqlx.DB, breaker *resilience.CircuitBreaker) *MatchRepository {
	return &MatchRepository{db: db, breaker: breaker}
}

// SaveCompleted writes the match row and replaces its player statistics in
// one transaction. Saving the same match again overwrites it.
func (r *MatchRepository) SaveCompleted(ctx context.Context, record match.CompletedMatch) error {
	row, statRows, err := completedMatchToRows(record)
	if err != nil {
		return err
	}

	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx save completed match: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		builder, err := qb.InsertModels("completed_matches", []completedMatchTableModel{row})
		if err != nil {
			return fmt.Errorf("build upsert completed match query: %w", err)
		}
		query, args, err := builder.
			OnConflictUpdate([]string{"match_id"}, completedMatchColumns[1:]...).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert completed match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert completed match: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM match_player_stats WHERE match_id = $1`, record.MatchID); err != nil {
			return fmt.Errorf("clear match player stats: %w", err)
		}
		if len(statRows) > 0 {
			builder, err := qb.InsertModels("match_player_stats", statRows)
			if err != nil {
				return fmt.Errorf("build insert match player stats query: %w", err)
			}
			query, args, err := builder.ToSQL()
			if err != nil {
				return fmt.Errorf("build insert match player stats query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert match player stats: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit save completed match: %w", err)
		}
		return nil
	})
}

func (r *MatchRepository) GetCompleted(ctx context.Context, matchID string) (match.CompletedMatch, bool, error) {
	var (
		out   match.CompletedMatch
		found bool
	)
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		query, args, err := selectCompletedMatchQuery(matchID)
		if err != nil {
			return fmt.Errorf("build select completed match query: %w", err)
		}

		var row completedMatchTableModel
		if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("select completed match: %w", err)
		}

		query, args, err = qb.Select(matchPlayerStatsColumns...).
			From("match_player_stats").
			Where(qb.Eq("match_id", matchID)).
			OrderBy("player_id").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build select match player stats query: %w", err)
		}
		var statRows []matchPlayerStatsTableModel
		if err := r.db.SelectContext(ctx, &statRows, query, args...); err != nil {
			return fmt.Errorf("select match player stats: %w", err)
		}

		out, err = rowsToCompletedMatch(row, statRows)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return match.CompletedMatch{}, false, err
	}

	return out, found, nil
}

func selectCompletedMatchQuery(matchID string) (string, []any, error) {
	return qb.Select(completedMatchColumns...).
		From("completed_matches").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
}

func completedMatchToRows(record match.CompletedMatch) (completedMatchTableModel, []matchPlayerStatsTableModel, error) {
	docs := make([]eventDocument, 0, len(record.Events))
	for _, ev := range record.Events {
		docs = append(docs, eventDocument{
			Sequence:        ev.Sequence,
			Minute:          ev.Minute,
			Type:            string(ev.Type),
			TeamID:          ev.TeamID,
			PlayerID:        ev.PlayerID,
			AssistPlayerID:  ev.AssistPlayerID,
			RelatedPlayerID: ev.RelatedPlayerID,
			Detail:          ev.Detail,
		})
	}
	events, err := sonic.Marshal(docs)
	if err != nil {
		return completedMatchTableModel{}, nil, fmt.Errorf("encode match events: %w", err)
	}

	row := completedMatchTableModel{
		MatchID:        record.MatchID,
		HomeTeamID:     record.HomeTeamID,
		AwayTeamID:     record.AwayTeamID,
		Seed:           record.Seed,
		TerminalMinute: record.TerminalMinute,
		HomeScore:      record.HomeScore,
		AwayScore:      record.AwayScore,
		Events:         string(events),
		CompletedAt:    record.CompletedAt.UTC(),
	}

	statRows := make([]matchPlayerStatsTableModel, 0, len(record.Players))
	for _, p := range record.Players {
		statRows = append(statRows, matchPlayerStatsTableModel{
			MatchID:  record.MatchID,
			PlayerID: p.PlayerID,
			TeamID:   p.TeamID,
			Position: string(p.Position),
			Counts:   p.Statistics.Counts(),
		})
	}

	return row, statRows, nil
}

func rowsToCompletedMatch(row completedMatchTableModel, statRows []matchPlayerStatsTableModel) (match.CompletedMatch, error) {
	var docs []eventDocument
	if row.Events != "" {
		if err := sonic.UnmarshalString(row.Events, &docs); err != nil {
			return match.CompletedMatch{}, fmt.Errorf("decode match events for %s: %w", row.MatchID, err)
		}
	}

	events := make([]match.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, match.Event{
			Sequence:        d.Sequence,
			Minute:          d.Minute,
			Type:            match.EventType(d.Type),
			TeamID:          d.TeamID,
			PlayerID:        d.PlayerID,
			AssistPlayerID:  d.AssistPlayerID,
			RelatedPlayerID: d.RelatedPlayerID,
			Detail:          d.Detail,
		})
	}

	players := make([]match.PlayerRecord, 0, len(statRows))
	for _, s := range statRows {
		stats, err := s.Counts.Statistics()
		if err != nil {
			return match.CompletedMatch{}, fmt.Errorf("player %s in match %s: %w", s.PlayerID, s.MatchID, err)
		}
		players = append(players, match.PlayerRecord{
			PlayerID:   s.PlayerID,
			TeamID:     s.TeamID,
			Position:   player.Position(s.Position),
			Statistics: stats,
		})
	}

	return match.CompletedMatch{
		MatchID:        row.MatchID,
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		Seed:           row.Seed,
		TerminalMinute: row.TerminalMinute,
		HomeScore:      row.HomeScore,
		AwayScore:      row.AwayScore,
		Events:         events,
		Players:        players,
		CompletedAt:    row.CompletedAt,
	}, nil
}

var _ match.Repository = (*MatchRepository)(nil)

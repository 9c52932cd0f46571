package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
)

type completedMatchTableModel struct {
	MatchID        string    `db:"match_id"`
	HomeTeamID     string    `db:"home_team_id"`
	AwayTeamID     string    `db:"away_team_id"`
	Seed           int64     `db:"seed"`
	TerminalMinute int       `db:"terminal_minute"`
	HomeScore      int       `db:"home_score"`
	AwayScore      int       `db:"away_score"`
	Events         string    `db:"events"`
	CompletedAt    time.Time `db:"completed_at"`
}

type matchPlayerStatsTableModel struct {
	MatchID  string `db:"match_id"`
	PlayerID string `db:"player_id"`
	TeamID   string `db:"team_id"`
	Position string `db:"position"`
	matchstats.Counts
}

// eventDocument is the jsonb shape of one match event.
type eventDocument struct {
	Sequence        int    `json:"sequence"`
	Minute          int    `json:"minute"`
	Type            string `json:"type"`
	TeamID          string `json:"team_id"`
	PlayerID        string `json:"player_id"`
	AssistPlayerID  string `json:"assist_player_id,omitempty"`
	RelatedPlayerID string `json:"related_player_id,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

type playerTableModel struct {
	ID               string          `db:"id"`
	TeamID           string          `db:"team_id"`
	Name             string          `db:"name"`
	Position         string          `db:"position"`
	BasePrice        int64           `db:"base_price"`
	CurrentPrice     int64           `db:"current_price"`
	FormRating       decimal.Decimal `db:"form_rating"`
	OwnershipPercent decimal.Decimal `db:"ownership_percent"`
	IsActive         bool            `db:"is_active"`
}

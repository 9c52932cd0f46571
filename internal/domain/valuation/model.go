package valuation

import (
	"math"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/matchstats"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	"github.com/shopspring/decimal"
)

// Trend is the direction of a price move.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

const (
	MinFormRating = 1.0
	MaxFormRating = 10.0

	baseFormRating   = 6.0
	maxMinutesBonus  = 1.0
	maxPerformance   = 2.0
	maxNegative      = 2.0
	fullMatchMinutes = 90.0
	savesForBonus    = 3
	savesBonus       = 0.2
)

// DefaultTrendThreshold is the price move, in price units, below which a
// player's trend is reported as stable.
const DefaultTrendThreshold int64 = 2

var (
	maxChangeRatio = decimal.NewFromFloat(0.3)
	five           = decimal.NewFromInt(5)
	ten            = decimal.NewFromInt(10)
	hundred        = decimal.NewFromInt(100)
)

// ComputeFormRating scores one match performance on the 1-10 scale.
func ComputeFormRating(stats matchstats.Statistics) float64 {
	minutes := math.Min(float64(stats.MinutesPlayed)/fullMatchMinutes, 1) * maxMinutesBonus

	performance := float64(stats.GoalsScored)*0.5 +
		float64(stats.Assists)*0.3 +
		float64(stats.CleanSheets)*0.3 +
		float64(stats.PenaltiesSaved)*0.5
	if stats.Saves >= savesForBonus {
		performance += savesBonus
	}
	performance = math.Min(performance, maxPerformance)

	negative := float64(stats.OwnGoals)*0.5 +
		float64(stats.PenaltiesMissed)*0.3 +
		float64(stats.YellowCards)*0.1 +
		float64(stats.RedCards)*1.0
	negative = math.Min(negative, maxNegative)

	rating := baseFormRating + minutes + performance - negative
	return math.Max(MinFormRating, math.Min(MaxFormRating, rating))
}

// ComputePlayerValue derives the new price from the base price, never from the
// previous current price, so repeated valuation with the same inputs is stable.
// The move is capped at 30% of the base price either way.
func ComputePlayerValue(p player.Player) int64 {
	base := decimal.NewFromInt(p.BasePrice)
	maxChange := base.Mul(maxChangeRatio).Floor()

	formFactor := decimal.NewFromFloat(clamp(p.FormRating, MinFormRating, MaxFormRating)).Div(five)
	ownershipFactor := decimal.NewFromFloat(clamp(p.OwnershipPercent, 0, 100)).Div(hundred)
	change := base.Mul(formFactor.Add(ownershipFactor)).Div(ten).Floor()

	if change.GreaterThan(maxChange) {
		change = maxChange
	}
	if change.LessThan(maxChange.Neg()) {
		change = maxChange.Neg()
	}

	return base.Add(change).IntPart()
}

// ClassifyTrend compares two prices against a fixed threshold in price units.
func ClassifyTrend(oldPrice, newPrice, threshold int64) Trend {
	delta := newPrice - oldPrice
	switch {
	case delta > threshold:
		return TrendUp
	case delta < -threshold:
		return TrendDown
	default:
		return TrendStable
	}
}

// Revaluation is the outcome of revaluing one player after a completed match.
type Revaluation struct {
	Player   player.Player
	OldPrice int64
	Trend    Trend
}

// Revalue refreshes form rating and current price from one completed match.
func Revalue(p player.Player, stats matchstats.Statistics, trendThreshold int64) Revaluation {
	oldPrice := p.CurrentPrice
	p.FormRating = ComputeFormRating(stats)
	p.CurrentPrice = ComputePlayerValue(p)

	return Revaluation{
		Player:   p,
		OldPrice: oldPrice,
		Trend:    ClassifyTrend(oldPrice, p.CurrentPrice, trendThreshold),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

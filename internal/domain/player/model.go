package player

import "fmt"

// Position represents football position categories used in fantasy rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

func (p Position) Valid() bool {
	_, ok := AllPositions[p]
	return ok
}

// Player is a selectable athlete whose price and form drift after each completed match.
type Player struct {
	ID               string
	TeamID           string
	Name             string
	Position         Position
	BasePrice        int64
	CurrentPrice     int64
	FormRating       float64
	OwnershipPercent float64
	Active           bool
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if !p.Position.Valid() {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.BasePrice <= 0 {
		return fmt.Errorf("player base price must be greater than zero")
	}
	if p.FormRating < 0 || p.FormRating > 10 {
		return fmt.Errorf("player form rating out of range: %v", p.FormRating)
	}
	if p.OwnershipPercent < 0 || p.OwnershipPercent > 100 {
		return fmt.Errorf("player ownership percent out of range: %v", p.OwnershipPercent)
	}

	return nil
}

// Deactivate retires the player from selection. Players are never deleted.
func (p Player) Deactivate() Player {
	p.Active = false
	return p
}

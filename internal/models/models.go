// Package models provides domain models for the trading simulator.
package models

import (
	"fmt"
	"strings"
)

// Direction represents the predicted (or drawn) price movement.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection parses a direction from user input.
// "buy"/"call" map to up and "sell"/"put" map to down.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "buy", "call":
		return DirectionUp, nil
	case "down", "sell", "put":
		return DirectionDown, nil
	default:
		return "", fmt.Errorf("invalid direction %q (must be 'up' or 'down')", s)
	}
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Label returns the order label shown in trade history.
func (d Direction) Label() string {
	if d == DirectionUp {
		return "BUY"
	}
	return "SELL"
}

// Outcome represents how a resolved trade ended.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

package models

import (
	"math"
	"time"
)

// TradeRecord represents a resolved trade. Records are immutable once created.
type TradeRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Direction  Direction `json:"direction" yaml:"direction"`
	Stake      float64   `json:"stake" yaml:"stake"`
	Payout     float64   `json:"payout" yaml:"payout"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
	Drawn      Direction `json:"drawn,omitempty" yaml:"drawn,omitempty"`
	ProfitRate float64   `json:"profit_rate" yaml:"profit_rate"`
	Auto       bool      `json:"auto,omitempty" yaml:"auto,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// Won returns true if the trade paid out.
func (r TradeRecord) Won() bool {
	return r.Outcome == OutcomeWon
}

// Finite returns a copy of r with NaN and infinite amounts replaced by 0,
// the value an unset JSON number reads back as.
func (r TradeRecord) Finite() TradeRecord {
	r.Stake = finiteOrZero(r.Stake)
	r.Payout = finiteOrZero(r.Payout)
	r.ProfitRate = finiteOrZero(r.ProfitRate)
	return r
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Payout returns the signed balance change of a resolved trade:
// stake*rate/100 when won, -stake when lost.
func Payout(stake, profitRate float64, outcome Outcome) float64 {
	if outcome == OutcomeWon {
		return stake * (profitRate / 100)
	}
	return -stake
}

package models

// State is a point-in-time snapshot of the trade engine.
type State struct {
	Balance    float64    `json:"balance"`
	Investment float64    `json:"investment"`
	ProfitRate float64    `json:"profit_rate"`
	Pending    *Direction `json:"pending,omitempty"`
	Message    string     `json:"message"`
	AutoTrade  bool       `json:"auto_trade"`
}

// AwaitingResolution returns true while a placed trade has not been resolved.
func (s State) AwaitingResolution() bool {
	return s.Pending != nil
}

// PotentialProfit returns what a winning trade at the current stake would earn.
func (s State) PotentialProfit() float64 {
	return s.Investment * (s.ProfitRate / 100)
}

package ledger

import "binary-trader/internal/models"

// Summary holds win/loss statistics over a set of trades.
type Summary struct {
	Total       int     `json:"total" yaml:"total"`
	Wins        int     `json:"wins" yaml:"wins"`
	Losses      int     `json:"losses" yaml:"losses"`
	WinRate     float64 `json:"win_rate" yaml:"win_rate"`
	NetPayout   float64 `json:"net_payout" yaml:"net_payout"`
	TotalStaked float64 `json:"total_staked" yaml:"total_staked"`
	LargestWin  float64 `json:"largest_win" yaml:"largest_win"`
	LargestLoss float64 `json:"largest_loss" yaml:"largest_loss"`
	AutoTrades  int     `json:"auto_trades" yaml:"auto_trades"`
	// LongestLossStreak is the longest run of consecutive losses.
	LongestLossStreak int `json:"longest_loss_streak" yaml:"longest_loss_streak"`
}

// Summarize computes statistics for records in any order.
func Summarize(records []models.TradeRecord) Summary {
	var s Summary
	streak := 0
	// Walk oldest to newest so streaks follow trade order.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		s.Total++
		s.NetPayout += r.Payout
		s.TotalStaked += r.Stake
		if r.Auto {
			s.AutoTrades++
		}
		if r.Won() {
			s.Wins++
			streak = 0
			if r.Payout > s.LargestWin {
				s.LargestWin = r.Payout
			}
			continue
		}
		s.Losses++
		streak++
		if streak > s.LongestLossStreak {
			s.LongestLossStreak = streak
		}
		if r.Payout < s.LargestLoss {
			s.LargestLoss = r.Payout
		}
	}
	if s.Total > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Total) * 100
	}
	return s
}

// Summary returns statistics for the whole ledger.
func (l *Ledger) Summary() Summary {
	return Summarize(l.records)
}

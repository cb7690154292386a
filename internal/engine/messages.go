package engine

import (
	"strconv"
	"strings"

	"binary-trader/pkg/utils"
)

// Status messages shown to the user.
const (
	MsgReady            = "Place your trade!"
	MsgPlacing          = "Placing trade..."
	MsgStakeNotPositive = "Investment must be greater than $0"
	MsgInsufficient     = "Insufficient balance for this investment"
	MsgTradeInProgress  = "A trade is already in progress"
	MsgAutoTradeRunning = "Auto trade is running; stop it to trade manually"
	MsgAutoTradeBlocked = "Wait for the pending trade to resolve before starting auto trade"
	MsgAutoTradeStarted = "Auto trade started"
	MsgAutoTradeOff     = "Auto trade stopped"
	MsgAutoTradeHalted  = "Auto Trade stopped: cannot place trade"
	MsgInvalidDirection = "Trade direction must be up or down"
	MsgTradeCancelled   = "Pending trade cancelled; stake refunded"
	msgWonPrefix        = "You won! Gained $"
	msgLostPrefix       = "You lost! Lost $"
)

func wonMessage(profit float64) string {
	return msgWonPrefix + utils.FormatAmount(profit)
}

func lostMessage(stake float64) string {
	return msgLostPrefix + utils.FormatAmount(stake)
}

// ParseAmount coerces user text to a number the way a numeric form field
// does: blank input is 0 and anything unparseable is NaN. NaN never passes
// the stake check, so it is rejected at placement rather than here.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nan
	}
	return v
}

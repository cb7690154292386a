package cli

import (
	"fmt"
	"strings"
	"time"

	"binary-trader/internal/engine"
	"binary-trader/internal/models"
	"binary-trader/pkg/utils"
)

// FormatTime formats a trade timestamp in local time using layout.
func FormatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return t.Local().Format(layout)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatRate formats a profit rate percentage.
func FormatRate(rate float64) string {
	return utils.FormatAmount(rate) + "%"
}

// FormatOrder describes a trade the way the history list shows it,
// e.g. "BUY $100".
func FormatOrder(dir models.Direction, stake float64) string {
	return dir.Label() + " $" + utils.FormatAmount(stake)
}

// parseAmountArg reads a numeric argument with form-field coercion.
func parseAmountArg(s string) float64 {
	return engine.ParseAmount(s)
}

type msgKind int

const (
	kindInfo msgKind = iota
	kindWin
	kindLoss
	kindError
)

// messageKind classifies a status message for colouring.
func messageKind(msg string) msgKind {
	switch {
	case strings.HasPrefix(msg, "You won!"):
		return kindWin
	case strings.HasPrefix(msg, "You lost!"):
		return kindLoss
	}
	switch msg {
	case engine.MsgStakeNotPositive, engine.MsgInsufficient, engine.MsgTradeInProgress,
		engine.MsgAutoTradeRunning, engine.MsgAutoTradeBlocked, engine.MsgAutoTradeHalted,
		engine.MsgInvalidDirection:
		return kindError
	}
	return kindInfo
}

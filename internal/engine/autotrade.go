package engine

import (
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/logging"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

// StartAutoTrade enters auto-trade mode. Every AutoTradeInterval the engine
// places and settles an up trade at the current stake, then resets the stake
// to the floor after a win or doubles it after a loss. The loop halts itself
// once the stake can no longer be placed.
//
// Starting is refused while a manual trade awaits resolution. Starting an
// active loop is a no-op.
func (e *Engine) StartAutoTrade() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return apperrors.ErrEngineClosed
	}
	if e.autoActive {
		return nil
	}
	if e.pending != nil {
		return e.rejectLocked(apperrors.NewValidationError("trade", e.pending.direction, MsgAutoTradeBlocked, apperrors.ErrTradeInProgress))
	}

	e.autoActive = true
	e.autoGen++
	e.message = MsgAutoTradeStarted
	logging.LogAutoTrade(e.logger, true, "")
	e.persistLocked(store.KeyTradeResult)
	e.publishLocked()
	e.armAutoLocked(e.autoGen)
	return nil
}

// StopAutoTrade leaves auto-trade mode and cancels the armed tick. No balance
// or stake change happens after it returns.
func (e *Engine) StopAutoTrade() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAutoLocked(MsgAutoTradeOff)
}

// ToggleAutoTrade starts auto-trade when it is off and stops it when it is on.
// It reports whether auto-trade is active afterwards.
func (e *Engine) ToggleAutoTrade() (bool, error) {
	e.mu.Lock()
	active := e.autoActive
	e.mu.Unlock()

	if active {
		e.StopAutoTrade()
		return false, nil
	}
	if err := e.StartAutoTrade(); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) armAutoLocked(gen uint64) {
	e.autoTimer = e.clock.AfterFunc(e.autoTradeInterval, func() { e.autoTick(gen) })
}

// stopAutoLocked leaves auto-trade mode. An empty reason leaves the status
// message untouched.
func (e *Engine) stopAutoLocked(reason string) {
	if !e.autoActive {
		return
	}
	e.autoActive = false
	// Bumping the generation invalidates a tick that already fired but is
	// still waiting for the lock.
	e.autoGen++
	if e.autoTimer != nil {
		e.autoTimer.Stop()
		e.autoTimer = nil
	}
	logging.LogAutoTrade(e.logger, false, reason)
	if reason != "" {
		e.message = reason
		e.persistLocked(store.KeyTradeResult)
	}
	e.publishLocked()
}

// autoTick runs one auto-trade cycle for loop generation gen.
func (e *Engine) autoTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.autoActive || gen != e.autoGen {
		return
	}
	e.autoTimer = nil

	if err := checkStake(e.investment, e.balance); err != nil {
		e.logger.Info().
			Str("reason", apperrors.UserMessage(err)).
			Float64("stake", e.investment).
			Float64("balance", e.balance).
			Msg("Auto trade cannot place next stake")
		e.stopAutoLocked(MsgAutoTradeHalted)
		return
	}

	stake := e.investment
	e.balance -= stake
	logging.LogTrade(e.logger, string(models.DirectionUp), stake, e.balance, true)

	rec := e.settleLocked(models.DirectionUp, stake, e.profitRate, true)
	if rec.Won() {
		e.investment = e.stakeFloor
	} else {
		e.investment = stake * 2
	}

	e.persistLocked(store.KeyBalance, store.KeyInvestment, store.KeyTradeResult)
	e.publishLocked()
	e.armAutoLocked(gen)
}

// Package engine implements the trade simulation state machine: balance,
// stake and profit rate, delayed trade resolution, the auto-trade
// (martingale) loop, and the persisted trade ledger.
//
// A trade moves Idle -> AwaitingResolution -> Idle. Auto-trade is an
// orthogonal mode that, while active, drives complete trade cycles on a
// fixed period. At most one trade is ever awaiting resolution, and manual
// placement is refused while auto-trade runs.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"binary-trader/internal/clock"
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/ledger"
	"binary-trader/internal/logging"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

var nan = math.NaN()

// Timing defaults.
const (
	DefaultResolutionDelay   = 1500 * time.Millisecond
	DefaultAutoTradeInterval = 2 * time.Second

	// Immediate selects a zero resolution delay; a zero Options value
	// selects DefaultResolutionDelay.
	Immediate time.Duration = -1
)

// Defaults are the values used when nothing has been persisted.
type Defaults struct {
	Balance    float64
	Investment float64
	ProfitRate float64
}

// DefaultDefaults returns balance 10000, investment 1 and profit rate 80.
func DefaultDefaults() Defaults {
	return Defaults{Balance: 10000, Investment: 1, ProfitRate: 80}
}

// Options configures an Engine. Zero values select the documented defaults.
type Options struct {
	Store             store.KVStore
	Clock             clock.Clock
	Drawer            Drawer
	Logger            zerolog.Logger
	Defaults          *Defaults
	ResolutionDelay   time.Duration // 0 selects the default, Immediate resolves without delay
	AutoTradeInterval time.Duration
	StakeFloor        float64       // default 1
	MaxLedgerRecords  int           // 0 keeps every record
	NewID             func() string // default uuid.NewString
}

type pendingTrade struct {
	seq        uint64
	direction  models.Direction
	stake      float64
	profitRate float64
	timer      clock.Timer
}

// Engine is the trade simulation state machine. All methods are safe for
// concurrent use; mutations are serialised behind a single mutex.
type Engine struct {
	mu sync.Mutex

	kv     store.KVStore
	clock  clock.Clock
	drawer Drawer
	logger zerolog.Logger
	newID  func() string

	resolutionDelay   time.Duration
	autoTradeInterval time.Duration
	stakeFloor        float64

	balance    float64
	investment float64
	profitRate float64
	message    string
	ledger     *ledger.Ledger

	pending  *pendingTrade
	tradeSeq uint64

	autoActive bool
	autoTimer  clock.Timer
	autoGen    uint64

	subs   map[uint64]*subscriber
	subSeq uint64

	closed bool
}

// New creates an engine and loads its state from opts.Store. Missing or
// malformed stored values fall back to the defaults and are logged, never
// returned.
func New(opts Options) *Engine {
	e := &Engine{
		kv:                opts.Store,
		clock:             opts.Clock,
		drawer:            opts.Drawer,
		newID:             opts.NewID,
		resolutionDelay:   opts.ResolutionDelay,
		autoTradeInterval: opts.AutoTradeInterval,
		stakeFloor:        opts.StakeFloor,
		subs:              make(map[uint64]*subscriber),
	}
	e.logger = logging.WithOperation(opts.Logger, "engine")
	if e.kv == nil {
		e.kv = store.NewMemoryStore()
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.drawer == nil {
		e.drawer = NewRandomDrawer(time.Now().UnixNano())
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	switch {
	case e.resolutionDelay == 0:
		e.resolutionDelay = DefaultResolutionDelay
	case e.resolutionDelay < 0:
		e.resolutionDelay = 0
	}
	if e.autoTradeInterval <= 0 {
		e.autoTradeInterval = DefaultAutoTradeInterval
	}
	if e.stakeFloor <= 0 {
		e.stakeFloor = 1
	}

	defaults := DefaultDefaults()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}
	e.load(defaults, opts.MaxLedgerRecords)

	return e
}

func (e *Engine) load(def Defaults, maxRecords int) {
	var err error
	if e.balance, err = store.LoadFloat(e.kv, store.KeyBalance, def.Balance); err != nil {
		e.logRecovered(err)
	}
	if e.investment, err = store.LoadFloat(e.kv, store.KeyInvestment, def.Investment); err != nil {
		e.logRecovered(err)
	}
	if e.profitRate, err = store.LoadFloat(e.kv, store.KeyProfitRate, def.ProfitRate); err != nil {
		e.logRecovered(err)
	}
	if e.message, err = store.LoadString(e.kv, store.KeyTradeResult, MsgReady); err != nil {
		e.logRecovered(err)
	}
	if e.ledger, err = ledger.Load(e.kv, maxRecords); err != nil {
		e.logRecovered(err)
	}

	e.logger.Debug().
		Float64("balance", e.balance).
		Float64("investment", e.investment).
		Float64("profit_rate", e.profitRate).
		Int("history", e.ledger.Len()).
		Msg("Engine state loaded")
}

func (e *Engine) logRecovered(err error) {
	e.logger.Debug().Err(err).Msg("Stored value unusable, using default")
}

// State returns a snapshot of the engine state.
func (e *Engine) State() models.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// History returns the resolved trades, newest first.
func (e *Engine) History() []models.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Records()
}

// Summary returns win/loss statistics over the ledger.
func (e *Engine) Summary() ledger.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Summary()
}

// PlaceTrade debits the current stake and schedules resolution of a trade
// in direction dir. A refused placement sets the status message, returns
// an error, and changes nothing else.
func (e *Engine) PlaceTrade(dir models.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return apperrors.ErrEngineClosed
	}
	if !dir.Valid() {
		return e.rejectLocked(apperrors.NewValidationError("direction", dir, MsgInvalidDirection, nil))
	}
	if e.autoActive {
		return e.rejectLocked(apperrors.NewValidationError("mode", "auto", MsgAutoTradeRunning, apperrors.ErrAutoTradeActive))
	}
	if e.pending != nil {
		return e.rejectLocked(apperrors.NewValidationError("trade", e.pending.direction, MsgTradeInProgress, apperrors.ErrTradeInProgress))
	}
	if err := checkStake(e.investment, e.balance); err != nil {
		return e.rejectLocked(err)
	}

	e.tradeSeq++
	p := &pendingTrade{
		seq:        e.tradeSeq,
		direction:  dir,
		stake:      e.investment,
		profitRate: e.profitRate,
	}
	e.balance -= p.stake
	e.pending = p
	e.message = MsgPlacing

	logging.LogTrade(e.logger, string(dir), p.stake, e.balance, false)
	e.persistLocked(store.KeyBalance, store.KeyTradeResult)
	e.publishLocked()

	seq := p.seq
	p.timer = e.clock.AfterFunc(e.resolutionDelay, func() { e.resolve(seq) })
	return nil
}

// checkStake validates a stake against the balance. A NaN stake fails the
// positivity check and a NaN balance covers no stake.
func checkStake(stake, balance float64) error {
	if !(stake > 0) {
		return apperrors.NewValidationError("investment", stake, MsgStakeNotPositive, apperrors.ErrInvalidStake)
	}
	if !(stake <= balance) {
		return apperrors.NewValidationError("investment", stake, MsgInsufficient, apperrors.ErrInsufficientBalance)
	}
	return nil
}

func (e *Engine) rejectLocked(err error) error {
	e.message = apperrors.UserMessage(err)
	logging.LogRejection(e.logger, e.message, e.investment, e.balance)
	e.persistLocked(store.KeyTradeResult)
	e.publishLocked()
	return err
}

// resolve is the clock callback for the trade with sequence number seq.
// Callbacks for cancelled or already settled trades are ignored.
func (e *Engine) resolve(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.pending == nil || e.pending.seq != seq {
		return
	}
	p := e.pending
	e.pending = nil

	e.settleLocked(p.direction, p.stake, p.profitRate, false)
	e.persistLocked(store.KeyBalance, store.KeyTradeResult)
	e.publishLocked()
}

// settleLocked draws the market direction for a trade whose stake has
// already been debited, credits a win, and records the trade.
func (e *Engine) settleLocked(dir models.Direction, stake, profitRate float64, auto bool) models.TradeRecord {
	drawn := e.drawer.Draw()
	outcome := models.OutcomeLost
	if drawn == dir {
		outcome = models.OutcomeWon
	}
	payout := models.Payout(stake, profitRate, outcome)

	if outcome == models.OutcomeWon {
		e.balance += stake + payout
		e.message = wonMessage(payout)
	} else {
		e.message = lostMessage(stake)
	}

	rec := models.TradeRecord{
		ID:         e.newID(),
		Direction:  dir,
		Stake:      stake,
		Payout:     payout,
		Outcome:    outcome,
		Drawn:      drawn,
		ProfitRate: profitRate,
		Auto:       auto,
		Timestamp:  e.clock.Now(),
	}
	err := e.ledger.Prepend(rec)
	logging.LogStoreWrite(e.logger, store.KeyTradeHistory, err)
	logging.LogSettlement(logging.WithTradeID(e.logger, rec.ID), string(dir), string(drawn), string(outcome), payout, e.balance)

	return rec
}

// DoubleStake sets the stake to twice its current value. There is no upper
// bound; placement still refuses a stake above the balance.
func (e *Engine) DoubleStake() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return apperrors.ErrEngineClosed
	}
	e.investment *= 2
	e.persistLocked(store.KeyInvestment)
	e.publishLocked()
	return nil
}

// SetStake overwrites the stake. Validation happens at placement.
func (e *Engine) SetStake(amount float64) error {
	return e.set(store.KeyInvestment, &e.investment, amount)
}

// SetProfitRate overwrites the profit rate percentage.
func (e *Engine) SetProfitRate(pct float64) error {
	return e.set(store.KeyProfitRate, &e.profitRate, pct)
}

// SetBalance overwrites the account balance.
func (e *Engine) SetBalance(amount float64) error {
	return e.set(store.KeyBalance, &e.balance, amount)
}

func (e *Engine) set(key string, field *float64, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return apperrors.ErrEngineClosed
	}
	*field = v
	e.persistLocked(key)
	e.publishLocked()
	return nil
}

// ClearLedger removes every trade record. Clearing an empty ledger is a no-op
// apart from rewriting the empty history.
func (e *Engine) ClearLedger() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return apperrors.ErrEngineClosed
	}
	err := e.ledger.Clear()
	logging.LogStoreWrite(e.logger, store.KeyTradeHistory, err)
	e.publishLocked()
	return nil
}

// WaitIdle blocks until no trade is awaiting resolution and returns the
// state at that point.
func (e *Engine) WaitIdle(ctx context.Context) (models.State, error) {
	ch, cancel := e.Subscribe(1)
	defer cancel()

	if s := e.State(); !s.AwaitingResolution() {
		return s, nil
	}
	for {
		select {
		case <-ctx.Done():
			return e.State(), ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return e.State(), apperrors.ErrEngineClosed
			}
			if !s.AwaitingResolution() {
				return s, nil
			}
		}
	}
}

// Close cancels any scheduled resolution or auto-trade tick and releases
// subscribers. A stake still reserved by an unresolved trade is refunded so
// the persisted balance never strands it. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	e.stopAutoLocked("")
	if p := e.pending; p != nil {
		if p.timer != nil {
			p.timer.Stop()
		}
		e.pending = nil
		e.balance += p.stake
		e.message = MsgTradeCancelled
		e.logger.Info().
			Str("direction", string(p.direction)).
			Float64("stake", p.stake).
			Msg("Pending trade cancelled on close")
		e.persistLocked(store.KeyBalance, store.KeyTradeResult)
		e.publishLocked()
	}

	e.closed = true
	e.closeSubscribersLocked()
	return nil
}

func (e *Engine) snapshot() models.State {
	s := models.State{
		Balance:    e.balance,
		Investment: e.investment,
		ProfitRate: e.profitRate,
		Message:    e.message,
		AutoTrade:  e.autoActive,
	}
	if e.pending != nil {
		dir := e.pending.direction
		s.Pending = &dir
	}
	return s
}

// persistLocked writes the named keys from the current state. Failures are
// logged; the in-memory state stays authoritative.
func (e *Engine) persistLocked(keys ...string) {
	for _, key := range keys {
		var value string
		switch key {
		case store.KeyBalance:
			value = store.FormatFloat(e.balance)
		case store.KeyInvestment:
			value = store.FormatFloat(e.investment)
		case store.KeyProfitRate:
			value = store.FormatFloat(e.profitRate)
		case store.KeyTradeResult:
			value = e.message
		default:
			continue
		}
		logging.LogStoreWrite(e.logger, key, e.kv.Set(key, value))
	}
}

package engine

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-trader/internal/clock"
	apperrors "binary-trader/internal/errors"
	"binary-trader/internal/models"
	"binary-trader/internal/store"
)

var epoch = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

type harness struct {
	engine *Engine
	clock  *clock.Manual
	kv     store.KVStore
	drawer *SequenceDrawer
}

func newHarness(t *testing.T, kv store.KVStore, draws ...models.Direction) *harness {
	t.Helper()
	if kv == nil {
		kv = store.NewMemoryStore()
	}
	c := clock.NewManual(epoch)
	d := Sequence(draws...)
	n := 0
	e := New(Options{
		Store:  kv,
		Clock:  c,
		Drawer: d,
		NewID: func() string {
			n++
			return fmt.Sprintf("t-%d", n)
		},
	})
	t.Cleanup(func() { _ = e.Close() })
	return &harness{engine: e, clock: c, kv: kv, drawer: d}
}

func (h *harness) resolve() {
	h.clock.Advance(DefaultResolutionDelay)
}

func TestDefaultsOnEmptyStore(t *testing.T) {
	h := newHarness(t, nil)
	s := h.engine.State()

	assert.Equal(t, 10000.0, s.Balance)
	assert.Equal(t, 1.0, s.Investment)
	assert.Equal(t, 80.0, s.ProfitRate)
	assert.Equal(t, MsgReady, s.Message)
	assert.Nil(t, s.Pending)
	assert.False(t, s.AutoTrade)
	assert.Empty(t, h.engine.History())
}

func TestScenarioWin(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.SetStake(100))

	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
	s := h.engine.State()
	assert.Equal(t, 9900.0, s.Balance, "stake is debited at placement")
	require.NotNil(t, s.Pending)
	assert.Equal(t, models.DirectionUp, *s.Pending)
	assert.Equal(t, MsgPlacing, s.Message)

	h.resolve()
	s = h.engine.State()
	assert.Equal(t, 10080.0, s.Balance)
	assert.Nil(t, s.Pending)
	assert.Equal(t, "You won! Gained $80", s.Message)

	hist := h.engine.History()
	require.Len(t, hist, 1)
	assert.Equal(t, models.DirectionUp, hist[0].Direction)
	assert.Equal(t, 100.0, hist[0].Stake)
	assert.Equal(t, 80.0, hist[0].Payout)
	assert.Equal(t, models.OutcomeWon, hist[0].Outcome)
	assert.Equal(t, models.DirectionUp, hist[0].Drawn)
	assert.Equal(t, "t-1", hist[0].ID)
	assert.Equal(t, epoch.Add(DefaultResolutionDelay), hist[0].Timestamp)
}

func TestScenarioLoss(t *testing.T) {
	h := newHarness(t, nil, models.DirectionDown)
	require.NoError(t, h.engine.SetStake(100))

	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
	h.resolve()

	s := h.engine.State()
	assert.Equal(t, 9900.0, s.Balance)
	assert.Equal(t, "You lost! Lost $100", s.Message)

	hist := h.engine.History()
	require.Len(t, hist, 1)
	assert.Equal(t, -100.0, hist[0].Payout)
	assert.Equal(t, models.OutcomeLost, hist[0].Outcome)
}

func TestPendingUntilDelayElapses(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.PlaceTrade(models.DirectionDown))

	h.clock.Advance(DefaultResolutionDelay - time.Millisecond)
	assert.True(t, h.engine.State().AwaitingResolution())
	assert.Equal(t, 0, h.drawer.Drawn())

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.engine.State().AwaitingResolution())
	assert.Equal(t, 1, h.drawer.Drawn())
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name    string
		stake   float64
		balance float64
		msg     string
		target  error
	}{
		{"zero stake", 0, 10000, MsgStakeNotPositive, apperrors.ErrInvalidStake},
		{"negative stake", -5, 10000, MsgStakeNotPositive, apperrors.ErrInvalidStake},
		{"nan stake", math.NaN(), 10000, MsgStakeNotPositive, apperrors.ErrInvalidStake},
		{"stake above balance", 10001, 10000, MsgInsufficient, apperrors.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			require.NoError(t, h.engine.SetBalance(tt.balance))
			require.NoError(t, h.engine.SetStake(tt.stake))

			err := h.engine.PlaceTrade(models.DirectionUp)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.target))

			var ve *apperrors.ValidationError
			require.True(t, apperrors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Message)

			s := h.engine.State()
			assert.Equal(t, tt.balance, s.Balance)
			assert.Equal(t, tt.msg, s.Message)
			assert.Nil(t, s.Pending)
			assert.Equal(t, 0, h.clock.Pending(), "no resolution scheduled")

			h.clock.Advance(time.Minute)
			assert.Empty(t, h.engine.History())
		})
	}
}

func TestStakeEqualToBalanceIsAllowed(t *testing.T) {
	h := newHarness(t, nil, models.DirectionDown)
	require.NoError(t, h.engine.SetBalance(50))
	require.NoError(t, h.engine.SetStake(50))

	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
	h.resolve()
	assert.Equal(t, 0.0, h.engine.State().Balance)
}

func TestNaNBalanceCoversNoStake(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.SetBalance(ParseAmount("abc")))

	err := h.engine.PlaceTrade(models.DirectionUp)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientBalance))

	s := h.engine.State()
	assert.True(t, math.IsNaN(s.Balance))
	assert.Equal(t, MsgInsufficient, s.Message)
	assert.Nil(t, s.Pending)
}

func TestNonFinitePayoutKeepsHistoryPersisting(t *testing.T) {
	kv := store.NewMemoryStore()
	h := newHarness(t, kv, models.DirectionUp, models.DirectionUp, models.DirectionUp)
	require.NoError(t, h.engine.SetStake(100))

	win := func(rate float64) {
		t.Helper()
		require.NoError(t, h.engine.SetProfitRate(rate))
		require.NoError(t, h.engine.SetBalance(1000))
		require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
		h.resolve()
	}
	win(ParseAmount("abc"))
	win(80)
	win(math.Inf(1))

	history := h.engine.History()
	require.Len(t, history, 3)
	assert.Equal(t, []float64{0, 80, 0}, []float64{history[0].Payout, history[1].Payout, history[2].Payout})
	assert.Equal(t, 0.0, history[2].ProfitRate)

	raw, ok, err := kv.Get(store.KeyTradeHistory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, raw)

	reopened := New(Options{Store: kv, Clock: clock.NewManual(epoch)})
	defer reopened.Close()
	assert.Equal(t, history, reopened.History())
}

func TestInvalidDirectionRejected(t *testing.T) {
	h := newHarness(t, nil)
	err := h.engine.PlaceTrade(models.Direction("sideways"))
	require.Error(t, err)
	assert.Equal(t, MsgInvalidDirection, h.engine.State().Message)
	assert.Equal(t, 10000.0, h.engine.State().Balance)
}

func TestSecondPlacementRejectedWhilePending(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.SetStake(10))
	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))

	err := h.engine.PlaceTrade(models.DirectionDown)
	assert.True(t, apperrors.Is(err, apperrors.ErrTradeInProgress))
	s := h.engine.State()
	assert.Equal(t, 9990.0, s.Balance, "second placement debits nothing")
	assert.Equal(t, MsgTradeInProgress, s.Message)
	assert.Equal(t, 1, h.clock.Pending())

	h.resolve()
	assert.Len(t, h.engine.History(), 1)
	assert.Equal(t, 10008.0, h.engine.State().Balance)
}

func TestStakeAndRateCapturedAtPlacement(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.SetStake(100))
	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))

	require.NoError(t, h.engine.SetStake(500))
	require.NoError(t, h.engine.SetProfitRate(50))
	h.resolve()

	hist := h.engine.History()
	require.Len(t, hist, 1)
	assert.Equal(t, 100.0, hist[0].Stake)
	assert.Equal(t, 80.0, hist[0].Payout)
	assert.Equal(t, 80.0, hist[0].ProfitRate)
	assert.Equal(t, 10080.0, h.engine.State().Balance)
	assert.Equal(t, 500.0, h.engine.State().Investment)
}

func TestDoubleStakeAndSetters(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.DoubleStake())
	require.NoError(t, h.engine.DoubleStake())
	assert.Equal(t, 4.0, h.engine.State().Investment)

	require.NoError(t, h.engine.SetProfitRate(95))
	require.NoError(t, h.engine.SetBalance(123.45))
	s := h.engine.State()
	assert.Equal(t, 95.0, s.ProfitRate)
	assert.Equal(t, 123.45, s.Balance)
	assert.InDelta(t, 3.8, s.PotentialProfit(), 1e-9)
}

func TestClearLedgerIdempotent(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp, models.DirectionDown)
	for i := 0; i < 2; i++ {
		require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
		h.resolve()
	}
	require.Len(t, h.engine.History(), 2)

	require.NoError(t, h.engine.ClearLedger())
	once, _, _ := h.kv.Get(store.KeyTradeHistory)
	require.NoError(t, h.engine.ClearLedger())
	twice, _, _ := h.kv.Get(store.KeyTradeHistory)

	assert.Empty(t, h.engine.History())
	assert.Equal(t, once, twice)
	assert.Equal(t, "[]", twice)
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	h := newHarness(t, kv, models.DirectionUp, models.DirectionDown)
	require.NoError(t, h.engine.SetBalance(2500.5))
	require.NoError(t, h.engine.SetStake(12.25))
	require.NoError(t, h.engine.SetProfitRate(72))
	for i := 0; i < 2; i++ {
		require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
		h.resolve()
	}
	before := h.engine.State()
	history := h.engine.History()
	require.NoError(t, h.engine.Close())

	reopened := New(Options{Store: kv, Clock: clock.NewManual(epoch)})
	defer reopened.Close()

	after := reopened.State()
	assert.Equal(t, before.Balance, after.Balance)
	assert.Equal(t, before.Investment, after.Investment)
	assert.Equal(t, before.ProfitRate, after.ProfitRate)
	assert.Equal(t, before.Message, after.Message)
	assert.Equal(t, history, reopened.History())
}

func TestMalformedStoreFallsBackToDefaults(t *testing.T) {
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(store.KeyBalance, "lots"))
	require.NoError(t, kv.Set(store.KeyInvestment, "NaN"))
	require.NoError(t, kv.Set(store.KeyProfitRate, "{}"))
	require.NoError(t, kv.Set(store.KeyTradeHistory, "[{broken"))

	e := New(Options{Store: kv, Clock: clock.NewManual(epoch)})
	defer e.Close()

	s := e.State()
	assert.Equal(t, 10000.0, s.Balance)
	assert.Equal(t, 1.0, s.Investment)
	assert.Equal(t, 80.0, s.ProfitRate)
	assert.Empty(t, e.History())
}

func TestCustomDefaults(t *testing.T) {
	e := New(Options{
		Clock:    clock.NewManual(epoch),
		Defaults: &Defaults{Balance: 500, Investment: 5, ProfitRate: 70},
	})
	defer e.Close()

	s := e.State()
	assert.Equal(t, 500.0, s.Balance)
	assert.Equal(t, 5.0, s.Investment)
	assert.Equal(t, 70.0, s.ProfitRate)
}

func TestCloseCancelsPendingAndRefunds(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	require.NoError(t, h.engine.SetStake(100))
	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
	require.NoError(t, h.engine.Close())

	h.clock.Advance(time.Minute)
	s := h.engine.State()
	assert.Equal(t, 10000.0, s.Balance)
	assert.Nil(t, s.Pending)
	assert.Equal(t, MsgTradeCancelled, s.Message)
	assert.Empty(t, h.engine.History())
	assert.Equal(t, 0, h.drawer.Drawn())

	raw, _, _ := h.kv.Get(store.KeyBalance)
	assert.Equal(t, "10000", raw)

	assert.ErrorIs(t, h.engine.PlaceTrade(models.DirectionUp), apperrors.ErrEngineClosed)
	assert.ErrorIs(t, h.engine.SetStake(1), apperrors.ErrEngineClosed)
	assert.NoError(t, h.engine.Close())
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	h := newHarness(t, nil, models.DirectionUp)
	ch, cancel := h.engine.Subscribe(8)
	defer cancel()

	require.NoError(t, h.engine.SetStake(10))
	s := <-ch
	assert.Equal(t, 10.0, s.Investment)

	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))
	s = <-ch
	assert.True(t, s.AwaitingResolution())

	h.resolve()
	s = <-ch
	assert.False(t, s.AwaitingResolution())
	assert.Equal(t, 10008.0, s.Balance)
}

func TestSlowSubscriberKeepsLatestState(t *testing.T) {
	h := newHarness(t, nil)
	ch, cancel := h.engine.Subscribe(1)
	defer cancel()

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.engine.SetStake(float64(i)))
	}
	s := <-ch
	assert.Equal(t, 5.0, s.Investment)
}

func TestSubscriptionClosedOnEngineClose(t *testing.T) {
	h := newHarness(t, nil)
	ch, cancel := h.engine.Subscribe(1)
	require.NoError(t, h.engine.Close())

	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	late, _ := h.engine.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestWaitIdleWithRealClock(t *testing.T) {
	e := New(Options{
		ResolutionDelay: 10 * time.Millisecond,
		Drawer:          Sequence(models.DirectionDown),
	})
	defer e.Close()
	require.NoError(t, e.SetStake(20))
	require.NoError(t, e.PlaceTrade(models.DirectionDown))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := e.WaitIdle(ctx)
	require.NoError(t, err)
	assert.False(t, s.AwaitingResolution())
	assert.Equal(t, 10016.0, s.Balance)
	assert.Len(t, e.History(), 1)
}

func TestWaitIdleHonoursContext(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.PlaceTrade(models.DirectionUp))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.engine.WaitIdle(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImmediateResolution(t *testing.T) {
	c := clock.NewManual(epoch)
	e := New(Options{Clock: c, ResolutionDelay: Immediate, Drawer: Sequence(models.DirectionUp)})
	defer e.Close()

	require.NoError(t, e.PlaceTrade(models.DirectionUp))
	assert.True(t, e.State().AwaitingResolution(), "pending until the clock runs the callback")
	c.Advance(0)
	assert.False(t, e.State().AwaitingResolution())
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("   "))
	assert.Equal(t, 12.5, ParseAmount(" 12.5 "))
	assert.Equal(t, -5.0, ParseAmount("-5"))
	assert.True(t, math.IsNaN(ParseAmount("abc")))
}

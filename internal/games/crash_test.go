package games

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

func newTestCrashEngine(ledger Ledger) *CrashEngine {
	return NewCrashEngine(ledger, services.NopBroadcaster{})
}

func TestCrashPlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted during betting window", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)

		res, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)
		assert.NotEmpty(t, res.BetID)
		assert.Equal(t, 900.0, res.NewBalance)
		assert.Equal(t, 900.0, ledger.balance(1))
	})

	t.Run("one bet per account per round", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)

		_, err = e.PlaceBet(ctx, 1, "alice", 50)
		assert.ErrorIs(t, err, models.ErrBetAlreadyPlaced)
		assert.Equal(t, 900.0, ledger.balance(1), "rejected bet must not debit")
	})

	t.Run("rejected once the round is running", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)
		e.status = models.RoundStatusRunning

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		assert.ErrorIs(t, err, models.ErrBettingClosed)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 50)
		e := newTestCrashEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	})
}

// runCrashRound steps the engine past the betting window into a running
// round with a crash point high enough that the tests control when it ends.
func runCrashRound(e *CrashEngine) time.Time {
	start := time.Now()
	e.crashPoint = 1000
	now := start
	for e.status == models.RoundStatusWaiting {
		now = now.Add(crashTick)
		e.step(now)
	}
	return now
}

func TestCrashCashout(t *testing.T) {
	ctx := context.Background()

	t.Run("pays server multiplier times stake", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)

		now := runCrashRound(e)
		// 20 seconds of growth.
		e.step(now.Add(20 * time.Second))
		require.Equal(t, models.RoundStatusRunning, e.status)
		mult := e.multiplier
		require.Greater(t, mult, 1.0)

		res, err := e.Cashout(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, mult, res.Multiplier)
		assert.Equal(t, 100*mult, res.Payout)
		assert.Equal(t, 900+100*mult, ledger.balance(1))

		recs := ledger.recordsFor(1)
		require.Len(t, recs, 1)
		assert.Equal(t, "win", recs[0].Result)
		assert.Equal(t, "crash", recs[0].GameType)
	})

	t.Run("rejected after the crash", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)

		runCrashRound(e)
		e.crashLocked()
		require.Equal(t, models.RoundStatusCrashed, e.status)

		_, err = e.Cashout(ctx, 1)
		assert.ErrorIs(t, err, models.ErrRoundNotRunning)
		assert.Equal(t, 900.0, ledger.balance(1), "stake stays lost")

		recs := ledger.recordsFor(1)
		require.Len(t, recs, 1)
		assert.Equal(t, "lose", recs[0].Result)
	})

	t.Run("double cashout rejected", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestCrashEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)

		now := runCrashRound(e)
		e.step(now.Add(5 * time.Second))

		_, err = e.Cashout(ctx, 1)
		require.NoError(t, err)

		_, err = e.Cashout(ctx, 1)
		assert.ErrorIs(t, err, models.ErrAlreadySettled)
		assert.Len(t, ledger.settlesFor(1), 1)
	})

	t.Run("no bet on record", func(t *testing.T) {
		ledger := newFakeLedger()
		e := newTestCrashEngine(ledger)

		runCrashRound(e)
		_, err := e.Cashout(ctx, 1)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("failed credit leaves the bet live", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		boom := errors.New("db down")
		ledger.failSettle[1] = boom

		e := newTestCrashEngine(ledger)
		_, err := e.PlaceBet(ctx, 1, "alice", 100)
		require.NoError(t, err)

		now := runCrashRound(e)
		e.step(now.Add(5 * time.Second))

		_, err = e.Cashout(ctx, 1)
		require.ErrorIs(t, err, boom)

		// Recovery: the retry succeeds once the ledger is back.
		delete(ledger.failSettle, 1)
		res, err := e.Cashout(ctx, 1)
		require.NoError(t, err)
		assert.Greater(t, res.Payout, 100.0)
	})
}

func TestCrashRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	e := newTestCrashEngine(ledger)

	_, err := e.PlaceBet(ctx, 1, "alice", 100)
	require.NoError(t, err)

	firstPeriod := e.period

	now := runCrashRound(e)
	e.step(now.Add(2 * time.Second))
	e.crashLocked()
	crashed := e.crashPoint

	// Pause elapses, a new betting window opens with a clean book.
	for e.status == models.RoundStatusCrashed {
		e.step(now)
	}
	assert.Equal(t, models.RoundStatusWaiting, e.status)
	assert.Empty(t, e.bets)
	assert.NotEmpty(t, firstPeriod)

	state := e.State()
	require.NotEmpty(t, state.History)
	assert.Equal(t, crashed, state.History[0], "most recent crash first")
}

func TestCrashStateSnapshot(t *testing.T) {
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	e := newTestCrashEngine(ledger)

	_, err := e.PlaceBet(context.Background(), 1, "alice", 100)
	require.NoError(t, err)

	state := e.State()
	assert.Equal(t, models.RoundStatusWaiting, state.Status)
	assert.Positive(t, state.WaitMillis)
	require.Len(t, state.Bets, 1)
	assert.NotEqual(t, "alice", state.Bets[0].User, "book names are masked")
}

func TestCrashHistoryCapped(t *testing.T) {
	e := newTestCrashEngine(newFakeLedger())
	for i := 0; i < models.HistoryLimit+5; i++ {
		e.crashPoint = float64(i)
		e.crashLocked()
		e.status = models.RoundStatusWaiting
	}
	assert.Len(t, e.history, models.HistoryLimit)
	assert.Equal(t, float64(models.HistoryLimit+4), e.history[0])
}

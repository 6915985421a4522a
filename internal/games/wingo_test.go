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

func newTestWingoEngine(ledger Ledger) *WingoEngine {
	return NewWingoEngine(ledger, services.NopBroadcaster{})
}

func wingoDraw(period string, number int) models.WingoResult {
	return models.WingoResult{
		ID:     time.Now().UnixMilli(),
		Period: period,
		Number: number,
		Color:  models.WingoColor(number),
		Size:   models.WingoSize(number),
	}
}

func TestWingoPlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted while the window is open", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		res, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)
		assert.Equal(t, 900.0, res.NewBalance)
		assert.Equal(t, e.period, res.Period)
	})

	t.Run("rejected inside the cutoff", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)
		e.timeLeft = 5.0

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		assert.ErrorIs(t, err, models.ErrBettingClosed)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})

	t.Run("last accepted moment is just above the cutoff", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)
		e.timeLeft = 5.1

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "small")
		assert.NoError(t, err)
	})

	t.Run("unknown selection", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "purple")
		assert.Error(t, err)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})
}

func TestWingoCountdown(t *testing.T) {
	e := newTestWingoEngine(newFakeLedger())

	now := time.Now()
	e.step(now)
	e.step(now)
	e.step(now)
	assert.Equal(t, 59.7, e.timeLeft, "fixed-point decrement never drifts")
}

func TestWingoSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("big bet on a big draw pays double", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)
		require.Equal(t, 900.0, ledger.balance(1))

		e.settleLocked(wingoDraw(e.period, 7))

		assert.Equal(t, 1100.0, ledger.balance(1))
		recs := ledger.recordsFor(1)
		require.Len(t, recs, 1)
		assert.Equal(t, "win", recs[0].Result)
		assert.Equal(t, 200.0, recs[0].Payout)
	})

	t.Run("losing bet forfeits the stake", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)

		e.settleLocked(wingoDraw(e.period, 3))

		assert.Equal(t, 900.0, ledger.balance(1))
		assert.Empty(t, ledger.settlesFor(1))
		recs := ledger.recordsFor(1)
		require.Len(t, recs, 1)
		assert.Equal(t, "lose", recs[0].Result)
	})

	t.Run("payouts aggregate into one credit per account", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)
		_, err = e.PlaceBet(ctx, 1, "alice", 50, "green")
		require.NoError(t, err)

		e.settleLocked(wingoDraw(e.period, 7)) // big and green both hit

		calls := ledger.settlesFor(1)
		require.Len(t, calls, 1)
		assert.Equal(t, 300.0, calls[0].amount) // 100*2 + 50*2
		assert.Equal(t, 1150.0, ledger.balance(1))
	})

	t.Run("one failed credit never blocks the others", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		ledger.fund(2, 1000)
		ledger.failSettle[1] = errors.New("db down")
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)
		_, err = e.PlaceBet(ctx, 2, "bob", 100, "big")
		require.NoError(t, err)

		e.settleLocked(wingoDraw(e.period, 9))

		assert.Equal(t, 900.0, ledger.balance(1))
		assert.Equal(t, 1100.0, ledger.balance(2))
	})

	t.Run("stale bets from an earlier period are skipped", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestWingoEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
		require.NoError(t, err)

		e.settleLocked(wingoDraw("999999", 7))

		assert.Empty(t, ledger.settlesFor(1))
		assert.Empty(t, ledger.recordsFor(1))
	})
}

func TestWingoRoundRollover(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	e := newTestWingoEngine(ledger)

	_, err := e.PlaceBet(ctx, 1, "alice", 100, "big")
	require.NoError(t, err)

	e.timeLeft = 0.1
	e.step(time.Now())

	assert.Equal(t, wingoWindow, e.timeLeft)
	assert.Empty(t, e.bets, "book clears between rounds")
	assert.Len(t, e.history, 1)

	state := e.State()
	assert.Len(t, state.History, 1)
	assert.Empty(t, state.Bets)
}

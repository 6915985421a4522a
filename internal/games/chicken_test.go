package games

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

func newTestChickenEngine(ledger Ledger) *ChickenEngine {
	return NewChickenEngine(ledger, services.NopBroadcaster{})
}

func TestChickenPlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted during the waiting window", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestChickenEngine(ledger)

		res, err := e.PlaceBet(ctx, 1, "alice", 100, 2)
		require.NoError(t, err)
		assert.Equal(t, 900.0, res.NewBalance)
	})

	t.Run("rejected mid-race", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestChickenEngine(ledger)
		e.status = models.RoundStatusRunning

		_, err := e.PlaceBet(ctx, 1, "alice", 100, 2)
		assert.ErrorIs(t, err, models.ErrBettingClosed)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})

	t.Run("unknown runner", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		e := newTestChickenEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, 9)
		assert.Error(t, err)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})
}

func TestChickenSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("winner paid at the runner odds", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		ledger.fund(2, 1000)
		e := newTestChickenEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, 1) // odds 2.5
		require.NoError(t, err)
		_, err = e.PlaceBet(ctx, 2, "bob", 100, 3)
		require.NoError(t, err)

		e.settleLocked(1)

		assert.Equal(t, 1150.0, ledger.balance(1)) // 900 + 100*2.5
		assert.Equal(t, 900.0, ledger.balance(2))

		winRecs := ledger.recordsFor(1)
		require.Len(t, winRecs, 1)
		assert.Equal(t, "win", winRecs[0].Result)
		assert.Equal(t, 2.5, winRecs[0].Multiplier)

		loseRecs := ledger.recordsFor(2)
		require.Len(t, loseRecs, 1)
		assert.Equal(t, "lose", loseRecs[0].Result)
	})

	t.Run("failed payout skips the account, not the round", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		ledger.fund(2, 1000)
		ledger.failSettle[1] = errors.New("db down")
		e := newTestChickenEngine(ledger)

		_, err := e.PlaceBet(ctx, 1, "alice", 100, 4)
		require.NoError(t, err)
		_, err = e.PlaceBet(ctx, 2, "bob", 100, 4)
		require.NoError(t, err)

		e.settleLocked(4)

		assert.Equal(t, 900.0, ledger.balance(1))
		assert.Equal(t, 1400.0, ledger.balance(2)) // 900 + 100*5.0
	})
}

func TestChickenRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	e := newTestChickenEngine(ledger)

	_, err := e.PlaceBet(ctx, 1, "alice", 100, 1)
	require.NoError(t, err)

	// Waiting window elapses, the race starts.
	for e.status == models.RoundStatusWaiting {
		e.step()
	}
	require.Equal(t, models.RoundStatusRunning, e.status)

	// Race elapses, a winner is drawn and the round pauses.
	for e.status == models.RoundStatusRunning {
		e.step()
	}
	require.Equal(t, models.RoundStatusFinished, e.status)
	assert.Contains(t, []int{1, 2, 3, 4}, e.winner)
	assert.Len(t, e.history, 1)
	require.Len(t, ledger.recordsFor(1), 1)

	// Pause elapses, a fresh betting window opens with an empty book.
	for e.status == models.RoundStatusFinished {
		e.step()
	}
	assert.Equal(t, models.RoundStatusWaiting, e.status)
	assert.Empty(t, e.bets)
}

func TestChickenDrawWinnerCoversAllRunners(t *testing.T) {
	e := newTestChickenEngine(newFakeLedger())

	seen := make(map[int]bool)
	for i := 0; i < 10000; i++ {
		seen[e.drawWinnerLocked()] = true
	}
	for _, r := range models.DefaultChickenRunners() {
		assert.True(t, seen[r.ID], "runner %d never drawn", r.ID)
	}
}

func TestChickenState(t *testing.T) {
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	e := newTestChickenEngine(ledger)

	_, err := e.PlaceBet(context.Background(), 1, "alice", 100, 2)
	require.NoError(t, err)

	state := e.State()
	assert.Equal(t, models.RoundStatusWaiting, state.Status)
	assert.Equal(t, chickenRaceDuration.Milliseconds(), state.Duration)
	assert.Len(t, state.Runners, 4)
	require.Len(t, state.Bets, 1)
	assert.Equal(t, "2", state.Bets[0].Selection)
}

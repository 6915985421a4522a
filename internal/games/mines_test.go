package games

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsf-arena-backend/internal/config"
	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

// Mines keeps its boards in Redis, so these tests need a live instance.
func newTestMinesGame(t *testing.T, ledger Ledger) *MinesGame {
	t.Helper()

	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		t.Skip("REDIS_URL not set")
	}

	redis, err := services.NewRedisService(&config.Config{RedisURL: addr})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { redis.Close() })

	return NewMinesGame(ledger, redis)
}

func TestMinesStart(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	g := newTestMinesGame(t, ledger)

	session, err := g.Start(ctx, 1, 100, 3)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.Len(t, session.Mines, 3)
	assert.Equal(t, 900.0, ledger.balance(1))
	assert.Equal(t, models.MinesMultiplier(3, 0), session.Multiplier)

	t.Run("mine count bounds", func(t *testing.T) {
		_, err := g.Start(ctx, 1, 100, 0)
		assert.Error(t, err)
		_, err = g.Start(ctx, 1, 100, models.MinesGridSize)
		assert.Error(t, err)
	})
}

func TestMinesRevealAndCashout(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	g := newTestMinesGame(t, ledger)

	session, err := g.Start(ctx, 1, 100, 3)
	require.NoError(t, err)

	// Find a safe tile and a mine from the stored board.
	safe, mine := -1, session.Mines[0]
	for p := 0; p < models.MinesGridSize; p++ {
		if !session.IsMine(p) {
			safe = p
			break
		}
	}
	require.GreaterOrEqual(t, safe, 0)

	res, err := g.Reveal(ctx, 1, session.ID, safe)
	require.NoError(t, err)
	assert.False(t, res.IsMine)
	assert.False(t, res.GameOver)
	assert.Equal(t, models.MinesMultiplier(3, 1), res.Multiplier)

	t.Run("re-revealing the same tile is rejected", func(t *testing.T) {
		_, err := g.Reveal(ctx, 1, session.ID, safe)
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})

	t.Run("another account cannot touch the board", func(t *testing.T) {
		_, err := g.Reveal(ctx, 2, session.ID, safe)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	cashout, err := g.Cashout(ctx, 1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MinesMultiplier(3, 1), cashout.Multiplier)
	assert.Equal(t, 100*cashout.Multiplier, cashout.Payout)
	assert.Equal(t, 900+cashout.Payout, ledger.balance(1))

	t.Run("settled board cannot settle again", func(t *testing.T) {
		_, err := g.Cashout(ctx, 1, session.ID)
		assert.ErrorIs(t, err, models.ErrInvalidState)
		_, err = g.Reveal(ctx, 1, session.ID, mine)
		assert.ErrorIs(t, err, models.ErrInvalidState)
		assert.Len(t, ledger.settlesFor(1), 1)
	})
}

func TestMinesHitMine(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	g := newTestMinesGame(t, ledger)

	session, err := g.Start(ctx, 1, 100, 3)
	require.NoError(t, err)

	res, err := g.Reveal(ctx, 1, session.ID, session.Mines[0])
	require.NoError(t, err)
	assert.True(t, res.IsMine)
	assert.True(t, res.GameOver)
	assert.ElementsMatch(t, session.Mines, res.Mines)
	assert.Equal(t, 900.0, ledger.balance(1), "stake stays forfeited")

	_, err = g.Cashout(ctx, 1, session.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestMinesFailedCreditLeavesBoardOpen(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	g := newTestMinesGame(t, ledger)

	session, err := g.Start(ctx, 1, 100, 3)
	require.NoError(t, err)

	safe := -1
	for p := 0; p < models.MinesGridSize; p++ {
		if !session.IsMine(p) {
			safe = p
			break
		}
	}
	require.GreaterOrEqual(t, safe, 0)

	_, err = g.Reveal(ctx, 1, session.ID, safe)
	require.NoError(t, err)

	boom := errors.New("db down")
	ledger.failSettle[1] = boom

	_, err = g.Cashout(ctx, 1, session.ID)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 900.0, ledger.balance(1), "no credit landed")

	// Recovery: the retry settles once the ledger is back.
	delete(ledger.failSettle, 1)
	res, err := g.Cashout(ctx, 1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MinesMultiplier(3, 1), res.Multiplier)
	assert.Equal(t, 900+res.Payout, ledger.balance(1))
	assert.Len(t, ledger.settlesFor(1), 1)

	// And the settled board stays settled.
	_, err = g.Cashout(ctx, 1, session.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestMinesCashoutNeedsReveal(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	ledger.fund(1, 1000)
	g := newTestMinesGame(t, ledger)

	session, err := g.Start(ctx, 1, 100, 3)
	require.NoError(t, err)

	_, err = g.Cashout(ctx, 1, session.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

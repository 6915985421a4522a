package games

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsf-arena-backend/internal/models"
)

func TestCoinFlipPlay(t *testing.T) {
	ctx := context.Background()

	t.Run("bookkeeping is consistent for every outcome", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 10000)
		g := NewCoinFlip(ledger)

		balance := 10000.0
		for i := 0; i < 50; i++ {
			res, err := g.Play(ctx, 1, 100, "heads")
			require.NoError(t, err)

			assert.Contains(t, []string{"heads", "tails"}, res.Outcome)
			assert.Equal(t, res.Outcome == "heads", res.Won)

			if res.Won {
				assert.Equal(t, 200.0, res.Payout)
				balance += 100
			} else {
				assert.Zero(t, res.Payout)
				balance -= 100
			}
			assert.Equal(t, balance, res.NewBalance)
			assert.Equal(t, balance, ledger.balance(1))
		}

		recs := ledger.recordsFor(1)
		require.Len(t, recs, 50)
		for _, rec := range recs {
			assert.Equal(t, "coinflip", rec.GameType)
			if rec.Result == "win" {
				assert.Equal(t, 200.0, rec.Payout)
			} else {
				assert.Zero(t, rec.Payout)
			}
		}
	})

	t.Run("invalid choice never debits", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 1000)
		g := NewCoinFlip(ledger)

		_, err := g.Play(ctx, 1, 100, "edge")
		assert.Error(t, err)
		assert.Equal(t, 1000.0, ledger.balance(1))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.fund(1, 50)
		g := NewCoinFlip(ledger)

		_, err := g.Play(ctx, 1, 100, "tails")
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	})
}

package games

import (
	"context"

	"tsf-arena-backend/internal/models"
)

// Ledger is the money boundary the engines settle through. Every stake and
// payout becomes exactly one ledger entry; engines never touch balances
// directly.
type Ledger interface {
	PlaceBet(ctx context.Context, userID int64, amount float64) (float64, error)
	SettleWin(ctx context.Context, userID int64, amount float64, kind models.TransactionType, reference string) (float64, error)
	SaveGameRecord(ctx context.Context, rec *models.GameRecord) error
}

// BetResult is returned to the caller of a bet placement.
type BetResult struct {
	BetID      string  `json:"bet_id"`
	NewBalance float64 `json:"new_balance"`
	Period     string  `json:"period"`
}

// CashoutResult is returned from a successful crash cashout.
type CashoutResult struct {
	BetID      string  `json:"bet_id"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
	NewBalance float64 `json:"new_balance"`
}

// pushHistory prepends v keeping the buffer bounded, most-recent-first.
func pushHistory[T any](history []T, v T) []T {
	history = append([]T{v}, history...)
	if len(history) > models.HistoryLimit {
		history = history[:models.HistoryLimit]
	}
	return history
}

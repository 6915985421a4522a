package models

import "time"

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdraw   TransactionType = "withdraw"
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypeWin        TransactionType = "win"
	TransactionTypeEntryFee   TransactionType = "entry_fee"
	TransactionTypePrize      TransactionType = "prize"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

// Transaction is one ledger entry. The ledger is append-only: deposit and
// withdraw entries start pending and are finalized exactly once by an admin;
// every other kind is written completed together with the balance change.
type Transaction struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	UserEmail   string            `json:"user_email,omitempty"`
	Type        TransactionType   `json:"type"`
	Amount      float64           `json:"amount"`
	Method      string            `json:"method,omitempty"`
	Status      TransactionStatus `json:"status"`
	Reference   string            `json:"reference,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// Withdrawal policy.
const (
	MinWithdrawAmount = 50
	DailyWithdrawCap  = 5000
)

// GameRecord is a durable per-user row for a settled session or round game.
type GameRecord struct {
	ID         int64     `json:"id"`
	GameType   string    `json:"game_type"`
	UserID     int64     `json:"user_id"`
	BetAmount  float64   `json:"bet_amount"`
	Multiplier float64   `json:"multiplier"`
	Payout     float64   `json:"payout"`
	Result     string    `json:"result"` // win, lose
	CreatedAt  time.Time `json:"created_at"`
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tsf-arena-backend/internal/models"
)

const transactionColumns = `id, user_id, type, amount, method, status, reference, created_at, processed_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Method,
		&t.Status, &t.Reference, &t.CreatedAt, &t.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return &t, nil
}

// debit subtracts amount from the user's balance inside tx. The guarded
// UPDATE makes concurrent debits race-free: the losing request simply finds
// no row to update and fails with ErrInsufficientBalance.
func debit(ctx context.Context, tx pgx.Tx, userID int64, amount float64) (float64, error) {
	var balance float64
	err := tx.QueryRow(ctx, `
		UPDATE users SET wallet_balance = wallet_balance - $1
		WHERE id = $2 AND wallet_balance >= $1
		RETURNING wallet_balance`, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check user: %w", err)
		}
		if !exists {
			return 0, models.ErrNotFound
		}
		return 0, models.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("debit balance: %w", err)
	}
	return balance, nil
}

func credit(ctx context.Context, tx pgx.Tx, userID int64, amount float64) (float64, error) {
	var balance float64
	err := tx.QueryRow(ctx, `
		UPDATE users SET wallet_balance = wallet_balance + $1
		WHERE id = $2
		RETURNING wallet_balance`, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}

func insertCompleted(ctx context.Context, tx pgx.Tx, userID int64, kind models.TransactionType, amount float64, reference string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, status, reference, processed_at)
		VALUES ($1, $2, $3, 'completed', $4, now())`,
		userID, kind, amount, reference)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// PlaceBet atomically debits the stake and records a completed bet entry.
func (s *Store) PlaceBet(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("bet amount must be positive: %w", models.ErrInvalidState)
	}

	var newBalance float64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balance, err := debit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return insertCompleted(ctx, tx, userID, models.TransactionTypeBet, amount, "")
	})
	return newBalance, err
}

// SettleWin atomically credits a payout and records a completed win, prize
// or adjustment entry. Amounts are trusted inputs from the round engines.
func (s *Store) SettleWin(ctx context.Context, userID int64, amount float64, kind models.TransactionType, reference string) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("payout amount must be positive: %w", models.ErrInvalidState)
	}

	var newBalance float64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balance, err := credit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return insertCompleted(ctx, tx, userID, kind, amount, reference)
	})
	return newBalance, err
}

// RequestDeposit appends a pending deposit entry. No balance changes until
// an admin approves it.
func (s *Store) RequestDeposit(ctx context.Context, userID int64, amount float64, method, reference string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, method, status, reference)
		VALUES ($1, 'deposit', $2, $3, 'pending', $4)`,
		userID, amount, method, reference)
	if err != nil {
		return fmt.Errorf("request deposit: %w", err)
	}
	return nil
}

// RequestWithdraw appends a pending withdraw entry after enforcing the
// minimum amount, balance sufficiency and the same-day cumulative cap over
// non-rejected withdrawals.
func (s *Store) RequestWithdraw(ctx context.Context, userID int64, amount float64, method, destination string) error {
	if amount < models.MinWithdrawAmount {
		return models.ErrMinimumNotMet
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var balance float64
		err := tx.QueryRow(ctx,
			`SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if amount > balance {
			return models.ErrInsufficientBalance
		}

		var dailyTotal float64
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM transactions
			WHERE user_id = $1 AND type = 'withdraw' AND status <> 'rejected'
			  AND created_at::date = CURRENT_DATE`, userID).Scan(&dailyTotal)
		if err != nil {
			return fmt.Errorf("daily withdrawal total: %w", err)
		}
		if dailyTotal+amount > models.DailyWithdrawCap {
			return models.ErrDailyLimitExceeded
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, type, amount, method, status, reference)
			VALUES ($1, 'withdraw', $2, $3, 'pending', $4)`,
			userID, amount, method, destination)
		if err != nil {
			return fmt.Errorf("request withdraw: %w", err)
		}
		return nil
	})
}

// ResolvePending finalizes a pending deposit or withdraw exactly once. The
// status flip and the balance mutation commit together or not at all; a
// second call on the same entry fails with ErrInvalidState and changes
// nothing.
func (s *Store) ResolvePending(ctx context.Context, entryID int64, approve bool) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		entry, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, entryID))
		if err != nil {
			return err
		}
		if entry.Status != models.TransactionStatusPending {
			return fmt.Errorf("entry %d is %s: %w", entryID, entry.Status, models.ErrInvalidState)
		}

		status := models.TransactionStatusRejected
		if approve {
			status = models.TransactionStatusCompleted
			switch entry.Type {
			case models.TransactionTypeDeposit:
				if _, err := credit(ctx, tx, entry.UserID, entry.Amount); err != nil {
					return err
				}
			case models.TransactionTypeWithdraw:
				if _, err := debit(ctx, tx, entry.UserID, entry.Amount); err != nil {
					return err
				}
			default:
				return fmt.Errorf("entry %d is not a deposit or withdraw: %w", entryID, models.ErrInvalidState)
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions SET status = $1, processed_at = now() WHERE id = $2`,
			status, entryID)
		if err != nil {
			return fmt.Errorf("finalize entry: %w", err)
		}
		return nil
	})
}

// AdjustBalance applies an admin balance correction and records it in the
// ledger. With set=true the amount is the target balance, otherwise a delta.
func (s *Store) AdjustBalance(ctx context.Context, userID int64, amount float64, set bool) (float64, error) {
	var newBalance float64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var current float64
		err := tx.QueryRow(ctx,
			`SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		delta := amount
		if set {
			delta = amount - current
		}
		target := current + delta
		if target < 0 {
			return models.ErrInsufficientBalance
		}

		err = tx.QueryRow(ctx, `
			UPDATE users SET wallet_balance = $1 WHERE id = $2
			RETURNING wallet_balance`, target, userID).Scan(&newBalance)
		if err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}
		return insertCompleted(ctx, tx, userID, models.TransactionTypeAdjustment, delta, "admin correction")
	})
	return newBalance, err
}

// PendingTransactions lists entries awaiting admin settlement, newest first.
func (s *Store) PendingTransactions(ctx context.Context) ([]*models.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.type, t.amount, t.method, t.status, t.reference,
		       t.created_at, t.processed_at, u.email
		FROM transactions t
		JOIN users u ON t.user_id = u.id
		WHERE t.status = 'pending'
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pending transactions: %w", err)
	}
	defer rows.Close()

	var entries []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Method,
			&t.Status, &t.Reference, &t.CreatedAt, &t.ProcessedAt, &t.UserEmail); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, &t)
	}
	return entries, rows.Err()
}

func (s *Store) UserTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("user transactions: %w", err)
	}
	defer rows.Close()

	var entries []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, rows.Err()
}

// SaveGameRecord appends a durable row for a settled game.
func (s *Store) SaveGameRecord(ctx context.Context, rec *models.GameRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_history (game_type, user_id, bet_amount, multiplier, payout, result)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.GameType, rec.UserID, rec.BetAmount, rec.Multiplier, rec.Payout, rec.Result)
	if err != nil {
		return fmt.Errorf("save game record: %w", err)
	}
	return nil
}

func (s *Store) UserGameHistory(ctx context.Context, userID int64, limit int) ([]*models.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, game_type, user_id, bet_amount, multiplier, payout, result, created_at
		FROM game_history WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("game history: %w", err)
	}
	defer rows.Close()

	var records []*models.GameRecord
	for rows.Next() {
		var r models.GameRecord
		if err := rows.Scan(&r.ID, &r.GameType, &r.UserID, &r.BetAmount,
			&r.Multiplier, &r.Payout, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// PlatformStats aggregates the admin dashboard counters.
type PlatformStats struct {
	TotalUsers         int64   `json:"total_users"`
	TotalBalance       float64 `json:"total_balance"`
	PendingDeposits    int64   `json:"pending_deposits"`
	PendingWithdrawals int64   `json:"pending_withdrawals"`
	TotalDeposits      float64 `json:"total_deposits"`
	TotalWithdrawals   float64 `json:"total_withdrawals"`
}

func (s *Store) Stats(ctx context.Context) (*PlatformStats, error) {
	var st PlatformStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(wallet_balance), 0) FROM users),
			(SELECT COUNT(*) FROM transactions WHERE type = 'deposit' AND status = 'pending'),
			(SELECT COUNT(*) FROM transactions WHERE type = 'withdraw' AND status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'deposit' AND status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = 'withdraw' AND status = 'completed')
	`).Scan(&st.TotalUsers, &st.TotalBalance, &st.PendingDeposits,
		&st.PendingWithdrawals, &st.TotalDeposits, &st.TotalWithdrawals)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &st, nil
}

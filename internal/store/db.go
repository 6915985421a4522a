package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Store is the durable side of the platform: accounts, the transaction
// ledger, tournaments and settled game records, all in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// connectRetryWindow is how long New keeps retrying before giving up.
var connectRetryWindow = 30 * time.Second

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10

	var pool *pgxpool.Pool
	deadline := time.Now().Add(connectRetryWindow)
	for {
		connectCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, cfg)
		if err == nil {
			pingErr := pool.Ping(connectCtx)
			if pingErr == nil {
				cancel()
				break
			}
			pool.Close()
			err = fmt.Errorf("ping: %w", pingErr)
		}
		cancel()

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.WithError(err).Warn("Database not ready, retrying")
		time.Sleep(time.Second)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so startup is safe against an already-initialized database.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			wallet_balance DOUBLE PRECISION NOT NULL DEFAULT 1000 CHECK (wallet_balance >= 0),
			role TEXT NOT NULL DEFAULT 'user',
			login_attempts INT NOT NULL DEFAULT 0,
			lock_until TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			method TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			reference TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status) WHERE status = 'pending';

		CREATE TABLE IF NOT EXISTS game_history (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			game_type TEXT NOT NULL,
			user_id BIGINT NOT NULL REFERENCES users(id),
			bet_amount DOUBLE PRECISION NOT NULL,
			multiplier DOUBLE PRECISION NOT NULL DEFAULT 0,
			payout DOUBLE PRECISION NOT NULL DEFAULT 0,
			result TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_game_history_user ON game_history(user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS tournaments (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			title TEXT NOT NULL,
			game TEXT NOT NULL DEFAULT 'Free Fire',
			map TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT '',
			prize_pool DOUBLE PRECISION NOT NULL DEFAULT 0,
			entry_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_slots INT NOT NULL,
			status TEXT NOT NULL DEFAULT 'upcoming',
			room_id TEXT NOT NULL DEFAULT '',
			room_password TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS tournament_participants (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			tournament_id BIGINT NOT NULL REFERENCES tournaments(id),
			user_id BIGINT NOT NULL REFERENCES users(id),
			in_game_name TEXT NOT NULL,
			in_game_id TEXT NOT NULL,
			kills INT NOT NULL DEFAULT 0,
			rank INT,
			prize_won DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (tournament_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// withTx executes fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				log.WithError(rbErr).Error("Transaction rollback failed")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

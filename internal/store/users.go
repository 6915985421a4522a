package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tsf-arena-backend/internal/models"
)

const userColumns = `id, email, username, full_name, phone, password_hash,
	wallet_balance, role, login_attempts, lock_until, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.Phone,
		&u.PasswordHash, &u.WalletBalance, &u.Role, &u.LoginAttempts,
		&u.LockUntil, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, username, fullName, phone, passwordHash string, startingBalance float64) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, full_name, phone, password_hash, wallet_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		email, username, fullName, phone, passwordHash, startingBalance)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, fmt.Errorf("email already exists: %w", models.ErrInvalidState)
			}
			return nil, fmt.Errorf("username already exists: %w", models.ErrInvalidState)
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByIdentifier looks a user up by email or username.
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1`, identifier))
}

func (s *Store) UpdateProfile(ctx context.Context, userID int64, email, username string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET email = $1, username = $2 WHERE id = $3`,
		email, username, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("email or username already exists: %w", models.ErrInvalidState)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordFailedLogin bumps the consecutive-failure counter and locks the
// account for 30 minutes on the 10th failure. Returns true when the account
// was locked by this call.
func (s *Store) RecordFailedLogin(ctx context.Context, userID int64) (bool, error) {
	var attempts int
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET login_attempts = login_attempts + 1
		WHERE id = $1
		RETURNING login_attempts`, userID).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, models.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("record failed login: %w", err)
	}

	if attempts < models.MaxLoginAttempts {
		return false, nil
	}

	lockUntil := time.Now().Add(models.LockDuration)
	_, err = s.pool.Exec(ctx,
		`UPDATE users SET lock_until = $1 WHERE id = $2`, lockUntil, userID)
	if err != nil {
		return false, fmt.Errorf("lock account: %w", err)
	}
	return true, nil
}

// ResetLoginAttempts clears the failure counter and any lock after a
// successful login.
func (s *Store) ResetLoginAttempts(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET login_attempts = 0, lock_until = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

// EnsureAdmin creates the admin account on first login if it is missing.
func (s *Store) EnsureAdmin(ctx context.Context, email, passwordHash string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND role = 'admin'`, email))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, full_name, password_hash, role, wallet_balance)
		VALUES ($1, 'admin', 'System Admin', $2, 'admin', 999999)
		RETURNING `+userColumns, email, passwordHash))
}

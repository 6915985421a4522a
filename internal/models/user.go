package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Lockout policy for failed logins.
const (
	MaxLoginAttempts = 10
	LockDuration     = 30 * time.Minute
)

type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FullName      string     `json:"full_name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	PasswordHash  string     `json:"-"`
	WalletBalance float64    `json:"wallet_balance"`
	Role          string     `json:"role"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package models

import "errors"

// Business errors returned by the store and the game engines. Handlers map
// them to HTTP status codes with errors.Is; nothing below ever crashes a
// round loop.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("invalid state")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")

	ErrMinimumNotMet      = errors.New("minimum withdrawal not met")
	ErrDailyLimitExceeded = errors.New("daily withdrawal limit exceeded")

	ErrBettingClosed     = errors.New("betting is closed for this round")
	ErrBetAlreadyPlaced  = errors.New("bet already placed this round")
	ErrRoundNotRunning   = errors.New("round is not running")
	ErrAlreadySettled    = errors.New("bet already settled")

	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrRegistrationClosed = errors.New("registration closed")

	ErrAccountLocked = errors.New("account temporarily locked")
)

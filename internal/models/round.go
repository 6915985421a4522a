package models

type RoundStatus string

const (
	RoundStatusWaiting  RoundStatus = "waiting"
	RoundStatusRunning  RoundStatus = "running"
	RoundStatusCrashed  RoundStatus = "crashed"
	RoundStatusFinished RoundStatus = "finished"
)

// HistoryLimit bounds every round history buffer. Entries are kept
// most-recent-first.
const HistoryLimit = 20

// BookEntry is one row of the public bet book broadcast with each round.
// Usernames are masked before they leave the engine.
type BookEntry struct {
	ID         string  `json:"id"`
	User       string  `json:"user"`
	Amount     float64 `json:"amount"`
	Selection  string  `json:"selection,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Status     string  `json:"status"` // waiting, cashed_out, lost, won
}

// CrashRoundState is the snapshot sent to new subscribers and returned by
// the round-state endpoint. The pending crash point is never exposed.
type CrashRoundState struct {
	Status     RoundStatus `json:"status"`
	Multiplier float64     `json:"multiplier"`
	WaitMillis int64       `json:"wait_millis"`
	Period     string      `json:"period"`
	History    []float64   `json:"history"`
	Bets       []BookEntry `json:"bets"`
}

// WingoResult is one resolved Wingo draw.
type WingoResult struct {
	ID     int64  `json:"id"`
	Period string `json:"period"`
	Number int    `json:"number"`
	Color  string `json:"color"`
	Size   string `json:"size"`
}

type WingoRoundState struct {
	TimeLeft float64       `json:"time_left"`
	Period   string        `json:"period"`
	History  []WingoResult `json:"history"`
	Bets     []BookEntry   `json:"bets"`
}

// ChickenRunner is one contender in the race with its fixed odds.
type ChickenRunner struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Odds float64 `json:"odds"`
}

type ChickenRoundState struct {
	Status     RoundStatus     `json:"status"`
	WaitMillis int64           `json:"wait_millis"`
	Duration   int64           `json:"duration_millis"`
	Period     string          `json:"period"`
	Winner     int             `json:"winner,omitempty"`
	Runners    []ChickenRunner `json:"runners"`
	History    []int           `json:"history"`
	Bets       []BookEntry     `json:"bets"`
}

package models

import "time"

// Mines session lifecycle.
const (
	SessionStatusActive    = "active"
	SessionStatusCashedOut = "cashed_out"
	SessionStatusLost      = "lost"
)

// MinesSession is a turn-based mines board owned by one player. It lives in
// Redis for the duration of the game; settlement goes through the ledger.
type MinesSession struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	BetAmount  float64   `json:"bet_amount"`
	MineCount  int       `json:"mine_count"`
	Mines      []int     `json:"mines"`
	Revealed   []int     `json:"revealed"`
	Multiplier float64   `json:"multiplier"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

func (s *MinesSession) IsRevealed(position int) bool {
	for _, p := range s.Revealed {
		if p == position {
			return true
		}
	}
	return false
}

func (s *MinesSession) IsMine(position int) bool {
	for _, p := range s.Mines {
		if p == position {
			return true
		}
	}
	return false
}

// SafeTiles is the number of gem tiles on the board.
func (s *MinesSession) SafeTiles() int {
	return MinesGridSize - s.MineCount
}

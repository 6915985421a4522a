package models

import "time"

type TournamentStatus string

const (
	TournamentStatusUpcoming  TournamentStatus = "upcoming"
	TournamentStatusRoomReady TournamentStatus = "room_ready"
	TournamentStatusLive      TournamentStatus = "live"
	TournamentStatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID         int64            `json:"id"`
	Title      string           `json:"title"`
	Game       string           `json:"game"`
	Map        string           `json:"map,omitempty"`
	Mode       string           `json:"mode,omitempty"`
	PrizePool  float64          `json:"prize_pool"`
	EntryFee   float64          `json:"entry_fee"`
	TotalSlots int              `json:"total_slots"`
	Status     TournamentStatus `json:"status"`
	// Room credentials are only disclosed to registered participants once
	// the room is ready; they never appear in list responses.
	RoomID       string     `json:"-"`
	RoomPassword string     `json:"-"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	Registered   int        `json:"registered"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Participant struct {
	ID           int64     `json:"id"`
	TournamentID int64     `json:"tournament_id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	InGameName   string    `json:"in_game_name"`
	InGameID     string    `json:"in_game_id"`
	Kills        int       `json:"kills"`
	Rank         int       `json:"rank,omitempty"`
	PrizeWon     float64   `json:"prize_won"`
	CreatedAt    time.Time `json:"created_at"`
}

// ParticipantResult is one row of an admin results publication.
type ParticipantResult struct {
	UserID   int64   `json:"user_id" binding:"required"`
	Rank     int     `json:"rank"`
	Kills    int     `json:"kills"`
	PrizeWon float64 `json:"prize_won"`
}

type RoomDetails struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
}

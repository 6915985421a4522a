package models

// Request bodies are explicit tagged structs validated at the boundary;
// nothing dynamically typed reaches the engines or the store.

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	// Identifier accepts email or username.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
}

type DepositRequest struct {
	Method        string  `json:"method" binding:"required"`
	SenderNumber  string  `json:"sender_number" binding:"required"`
	TransactionID string  `json:"transaction_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

type WithdrawRequest struct {
	Method         string  `json:"method" binding:"required"`
	WithdrawNumber string  `json:"withdraw_number" binding:"required"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
}

type BetRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type WingoBetRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Selection string  `json:"selection" binding:"required"`
}

type ChickenBetRequest struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	ChickenID int     `json:"chicken_id" binding:"required,min=1,max=4"`
}

type MinesStartRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	// Zero means the default board of 3 mines.
	MineCount int `json:"mine_count" binding:"omitempty,min=1,max=24"`
}

type MinesRevealRequest struct {
	GameID   string `json:"game_id" binding:"required"`
	Position *int   `json:"position" binding:"required,min=0,max=24"`
}

type MinesCashoutRequest struct {
	GameID string `json:"game_id" binding:"required"`
}

type CoinFlipRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Side   string  `json:"side" binding:"required,oneof=heads tails"`
}

type ResolvePendingRequest struct {
	ID     int64  `json:"id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

type UpdateBalanceRequest struct {
	UserID int64   `json:"user_id" binding:"required"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type" binding:"required,oneof=add set"`
}

type CreateTournamentRequest struct {
	Title      string  `json:"title" binding:"required"`
	Map        string  `json:"map"`
	Mode       string  `json:"mode"`
	PrizePool  float64 `json:"prize_pool" binding:"required,gt=0"`
	EntryFee   float64 `json:"entry_fee" binding:"gte=0"`
	TotalSlots int     `json:"total_slots" binding:"required,gt=0"`
	StartTime  string  `json:"start_time"`
}

type UpdateTournamentRequest struct {
	Status       TournamentStatus `json:"status" binding:"required,oneof=upcoming room_ready live completed"`
	RoomID       string           `json:"room_id"`
	RoomPassword string           `json:"room_password"`
}

type PublishResultsRequest struct {
	Results []ParticipantResult `json:"results" binding:"required,dive"`
}

type TournamentRegisterRequest struct {
	InGameName string `json:"in_game_name" binding:"required"`
	InGameID   string `json:"in_game_id" binding:"required"`
}

package services

import "time"

const (
	KeyMinesSession       = "mines:session:%s"
	KeyUserActiveSessions = "user:%d:active_mines"
	KeyUserCompletedGames = "user:%d:completed_games"
	KeyRateLimit          = "ratelimit:%d:%s"

	TTLMinesSession = 24 * time.Hour

	RateLimitBets    = 30  // bets per minute
	RateLimitCashout = 60  // cashouts per minute
	RateLimitReveals = 120 // mines reveals per minute
)

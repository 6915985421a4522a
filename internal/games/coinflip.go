package games

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
)

// CoinFlip is the instant 50/50 game: the stake is debited, the side is
// drawn, and a win pays double in one call.
type CoinFlip struct {
	ledger Ledger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCoinFlip(ledger Ledger) *CoinFlip {
	return &CoinFlip{
		ledger: ledger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type CoinFlipResult struct {
	GameID     string  `json:"game_id"`
	Choice     string  `json:"choice"`
	Outcome    string  `json:"outcome"`
	Won        bool    `json:"won"`
	Payout     float64 `json:"payout"`
	NewBalance float64 `json:"new_balance"`
}

// Play runs one flip end to end.
func (g *CoinFlip) Play(ctx context.Context, userID int64, amount float64, choice string) (*CoinFlipResult, error) {
	if choice != "heads" && choice != "tails" {
		return nil, fmt.Errorf("unknown choice %q: %w", choice, models.ErrInvalidState)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	balance, err := g.ledger.PlaceBet(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	outcome := "tails"
	if g.rng.Intn(2) == 0 {
		outcome = "heads"
	}
	won := outcome == choice

	gameID := models.GenerateGameID()
	payout := 0.0
	multiplier := 0.0
	result := "lose"
	if won {
		multiplier = models.CoinFlipPayout
		payout = amount * models.CoinFlipPayout
		result = "win"
		balance, err = g.ledger.SettleWin(ctx, userID, payout, models.TransactionTypeWin, "coinflip:"+gameID)
		if err != nil {
			return nil, err
		}
	}

	if err := g.ledger.SaveGameRecord(ctx, &models.GameRecord{
		GameType:   "coinflip",
		UserID:     userID,
		BetAmount:  amount,
		Multiplier: multiplier,
		Payout:     payout,
		Result:     result,
	}); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to record coinflip")
	}

	return &CoinFlipResult{
		GameID:     gameID,
		Choice:     choice,
		Outcome:    outcome,
		Won:        won,
		Payout:     payout,
		NewBalance: balance,
	}, nil
}

package games

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

// MinesGame manages the turn-based mines boards. Sessions live in Redis;
// stakes and payouts go through the ledger. A single mutex serializes
// reveal/cashout against each other so a session can never settle twice.
type MinesGame struct {
	ledger Ledger
	redis  *services.RedisService

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMinesGame(ledger Ledger, redis *services.RedisService) *MinesGame {
	return &MinesGame{
		ledger: ledger,
		redis:  redis,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type MinesRevealResult struct {
	GameID        string  `json:"game_id"`
	Position      int     `json:"position"`
	IsMine        bool    `json:"is_mine"`
	Multiplier    float64 `json:"multiplier"`
	RevealedCount int     `json:"revealed_count"`
	GameOver      bool    `json:"game_over"`
	Mines         []int   `json:"mines,omitempty"`
	Payout        float64 `json:"payout,omitempty"`
	NewBalance    float64 `json:"new_balance,omitempty"`
	Status        string  `json:"status"`
}

type MinesCashoutResult struct {
	GameID        string  `json:"game_id"`
	Multiplier    float64 `json:"multiplier"`
	Payout        float64 `json:"payout"`
	RevealedCount int     `json:"revealed_count"`
	NewBalance    float64 `json:"new_balance"`
}

// Start debits the stake and opens a fresh board.
func (g *MinesGame) Start(ctx context.Context, userID int64, amount float64, mineCount int) (*models.MinesSession, error) {
	if mineCount < 1 || mineCount >= models.MinesGridSize {
		return nil, fmt.Errorf("mine count must be 1..%d: %w", models.MinesGridSize-1, models.ErrInvalidState)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.ledger.PlaceBet(ctx, userID, amount); err != nil {
		return nil, err
	}

	session := &models.MinesSession{
		ID:         models.GenerateGameID(),
		UserID:     userID,
		BetAmount:  amount,
		MineCount:  mineCount,
		Mines:      g.drawMinesLocked(mineCount),
		Multiplier: models.MinesMultiplier(mineCount, 0),
		Status:     models.SessionStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := g.redis.SaveMinesSession(ctx, session); err != nil {
		// Board never existed; give the stake back.
		if _, refundErr := g.ledger.SettleWin(ctx, userID, amount, models.TransactionTypeWin, "mines:refund"); refundErr != nil {
			log.WithError(refundErr).WithField("user_id", userID).Error("Failed to refund mines stake")
		}
		return nil, err
	}

	return session, nil
}

func (g *MinesGame) drawMinesLocked(count int) []int {
	positions := g.rng.Perm(models.MinesGridSize)[:count]
	return positions
}

// Reveal uncovers one tile. A mine ends the game and forfeits the stake; a
// gem bumps the multiplier. Clearing every safe tile cashes out
// automatically.
func (g *MinesGame) Reveal(ctx context.Context, userID int64, sessionID string, position int) (*MinesRevealResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, err := g.loadActiveLocked(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= models.MinesGridSize {
		return nil, fmt.Errorf("position out of range: %w", models.ErrInvalidState)
	}
	if session.IsRevealed(position) {
		return nil, fmt.Errorf("position already revealed: %w", models.ErrInvalidState)
	}

	if session.IsMine(position) {
		session.Status = models.SessionStatusLost
		session.Multiplier = 0
		session.EndedAt = time.Now()
		if err := g.redis.UpdateMinesSession(ctx, session); err != nil {
			return nil, err
		}
		if err := g.redis.CompleteMinesSession(ctx, userID, sessionID); err != nil {
			log.WithError(err).WithField("session_id", sessionID).Error("Failed to archive mines session")
		}
		if err := g.ledger.SaveGameRecord(ctx, &models.GameRecord{
			GameType:  "mines",
			UserID:    userID,
			BetAmount: session.BetAmount,
			Result:    "lose",
		}); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Failed to record mines loss")
		}

		return &MinesRevealResult{
			GameID:        sessionID,
			Position:      position,
			IsMine:        true,
			RevealedCount: len(session.Revealed),
			GameOver:      true,
			Mines:         session.Mines,
			Status:        session.Status,
		}, nil
	}

	session.Revealed = append(session.Revealed, position)
	session.Multiplier = models.MinesMultiplier(session.MineCount, len(session.Revealed))

	// Full clear pays out immediately.
	if len(session.Revealed) == session.SafeTiles() {
		payout, balance, err := g.settleLocked(ctx, session)
		if err != nil {
			return nil, err
		}
		return &MinesRevealResult{
			GameID:        sessionID,
			Position:      position,
			Multiplier:    session.Multiplier,
			RevealedCount: len(session.Revealed),
			GameOver:      true,
			Payout:        payout,
			NewBalance:    balance,
			Status:        session.Status,
		}, nil
	}

	if err := g.redis.UpdateMinesSession(ctx, session); err != nil {
		return nil, err
	}

	return &MinesRevealResult{
		GameID:        sessionID,
		Position:      position,
		Multiplier:    session.Multiplier,
		RevealedCount: len(session.Revealed),
		Status:        session.Status,
	}, nil
}

// Cashout settles an active board at its current multiplier. At least one
// tile must have been revealed.
func (g *MinesGame) Cashout(ctx context.Context, userID int64, sessionID string) (*MinesCashoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, err := g.loadActiveLocked(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Revealed) == 0 {
		return nil, fmt.Errorf("no tiles revealed: %w", models.ErrInvalidState)
	}

	payout, balance, err := g.settleLocked(ctx, session)
	if err != nil {
		return nil, err
	}

	return &MinesCashoutResult{
		GameID:        sessionID,
		Multiplier:    session.Multiplier,
		Payout:        payout,
		RevealedCount: len(session.Revealed),
		NewBalance:    balance,
	}, nil
}

func (g *MinesGame) loadActiveLocked(ctx context.Context, userID int64, sessionID string) (*models.MinesSession, error) {
	session, err := g.redis.GetMinesSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrForbidden
	}
	if session.Status != models.SessionStatusActive {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}
	return session, nil
}

// settleLocked closes a winning session: status flip first, then the
// credit. The status check in loadActiveLocked makes a second settlement
// structurally impossible; a failed credit reopens the board so the player
// can retry instead of losing the payout.
func (g *MinesGame) settleLocked(ctx context.Context, session *models.MinesSession) (float64, float64, error) {
	payout := session.BetAmount * session.Multiplier
	session.Status = models.SessionStatusCashedOut
	session.EndedAt = time.Now()

	if err := g.redis.UpdateMinesSession(ctx, session); err != nil {
		session.Status = models.SessionStatusActive
		session.EndedAt = time.Time{}
		return 0, 0, err
	}

	balance, err := g.ledger.SettleWin(ctx, session.UserID, payout, models.TransactionTypeWin, "mines:"+session.ID)
	if err != nil {
		// Credit failed: write the board back to active so a retry works.
		session.Status = models.SessionStatusActive
		session.EndedAt = time.Time{}
		if saveErr := g.redis.SaveMinesSession(ctx, session); saveErr != nil {
			log.WithError(saveErr).WithField("session_id", session.ID).Error("Failed to reopen mines session after payout failure")
		}
		return 0, 0, err
	}

	if err := g.redis.CompleteMinesSession(ctx, session.UserID, session.ID); err != nil {
		log.WithError(err).WithField("session_id", session.ID).Error("Failed to archive mines session")
	}

	if err := g.ledger.SaveGameRecord(ctx, &models.GameRecord{
		GameType:   "mines",
		UserID:     session.UserID,
		BetAmount:  session.BetAmount,
		Multiplier: session.Multiplier,
		Payout:     payout,
		Result:     "win",
	}); err != nil {
		log.WithError(err).WithField("user_id", session.UserID).Error("Failed to record mines win")
	}

	return payout, balance, nil
}

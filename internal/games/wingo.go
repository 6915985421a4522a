package games

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

const (
	wingoTick      = 100 * time.Millisecond
	wingoWindow    = 60.0 // seconds
	wingoBetCutoff = 5.0  // betting closes with 5s or less remaining
)

var wingoSelections = map[string]bool{
	"big": true, "small": true, "red": true, "green": true, "violet": true,
	"0": true, "1": true, "2": true, "3": true, "4": true,
	"5": true, "6": true, "7": true, "8": true, "9": true,
}

type wingoBet struct {
	id        string
	userID    int64
	user      string // masked
	amount    float64
	selection string
	period    string
}

// WingoEngine runs the fixed 60-second color/number lottery. One engine
// mutex guards the countdown, the bet book and resolution.
type WingoEngine struct {
	ledger Ledger
	bc     services.Broadcaster

	mu       sync.Mutex
	rng      *rand.Rand
	timeLeft float64
	period   string
	history  []models.WingoResult
	bets     []*wingoBet
}

func NewWingoEngine(ledger Ledger, bc services.Broadcaster) *WingoEngine {
	return &WingoEngine{
		ledger:   ledger,
		bc:       bc,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		timeLeft: wingoWindow,
		period:   models.RoundPeriod(time.Now()),
	}
}

// SetBroadcaster swaps the event sink. Call before Run starts ticking.
func (e *WingoEngine) SetBroadcaster(bc services.Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bc = bc
}

func (e *WingoEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(wingoTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.step(time.Now())
		}
	}
}

func (e *WingoEngine) step(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Fixed-point decrement: the float accumulation is rounded to one
	// decimal every tick so the countdown hits 0.0 exactly.
	e.timeLeft = math.Round((e.timeLeft-0.1)*10) / 10

	if e.timeLeft <= 0 {
		e.resolveLocked(now)
		e.timeLeft = wingoWindow
		e.period = models.RoundPeriod(now)
		e.bets = nil
	}

	e.bc.Publish("wingo:update", map[string]any{"time_left": e.timeLeft})
}

func (e *WingoEngine) resolveLocked(now time.Time) {
	number := e.rng.Intn(10)
	e.settleLocked(models.WingoResult{
		ID:     now.UnixMilli(),
		Period: e.period,
		Number: number,
		Color:  models.WingoColor(number),
		Size:   models.WingoSize(number),
	})
}

// settleLocked settles every bet tagged with the closing period against the
// drawn result. Payouts are aggregated per account, one credit each; a
// failed credit is logged and skipped so it never stalls the round or the
// other accounts.
func (e *WingoEngine) settleLocked(result models.WingoResult) {
	e.history = pushHistory(e.history, result)

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	payouts := make(map[int64]float64)
	for _, b := range e.bets {
		if b.period != result.Period {
			continue
		}
		multiplier := models.WingoPayoutMultiplier(b.selection, result)
		payout := b.amount * multiplier
		if payout > 0 {
			payouts[b.userID] += payout
		}

		outcome := "lose"
		if payout > 0 {
			outcome = "win"
		}
		err := e.ledger.SaveGameRecord(ctx, &models.GameRecord{
			GameType:   "wingo",
			UserID:     b.userID,
			BetAmount:  b.amount,
			Multiplier: multiplier,
			Payout:     payout,
			Result:     outcome,
		})
		if err != nil {
			log.WithError(err).WithField("user_id", b.userID).Error("Failed to record wingo bet")
		}
	}

	for userID, payout := range payouts {
		_, err := e.ledger.SettleWin(ctx, userID, payout, models.TransactionTypeWin, "wingo:"+result.Period)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"period":  result.Period,
				"payout":  payout,
			}).Error("Failed to settle wingo payout")
		}
	}

	e.bc.Publish("wingo:result", map[string]any{
		"result":  result,
		"history": append([]models.WingoResult(nil), e.history...),
	})
}

// PlaceBet stakes amount on a selection for the current period. Rejected
// once 5 seconds or less remain in the window.
func (e *WingoEngine) PlaceBet(ctx context.Context, userID int64, username string, amount float64, selection string) (*BetResult, error) {
	if !wingoSelections[selection] {
		return nil, fmt.Errorf("unknown selection %q: %w", selection, models.ErrInvalidState)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timeLeft <= wingoBetCutoff {
		return nil, models.ErrBettingClosed
	}

	balance, err := e.ledger.PlaceBet(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	b := &wingoBet{
		id:        models.GenerateBetID(),
		userID:    userID,
		user:      models.MaskName(username),
		amount:    amount,
		selection: selection,
		period:    e.period,
	}
	e.bets = append(e.bets, b)

	e.bc.Publish("wingo:bet_update", map[string]any{"bets": e.bookLocked()})

	return &BetResult{BetID: b.id, NewBalance: balance, Period: e.period}, nil
}

func (e *WingoEngine) State() models.WingoRoundState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.WingoRoundState{
		TimeLeft: e.timeLeft,
		Period:   e.period,
		History:  append([]models.WingoResult(nil), e.history...),
		Bets:     e.bookLocked(),
	}
}

func (e *WingoEngine) bookLocked() []models.BookEntry {
	book := make([]models.BookEntry, 0, len(e.bets))
	// Most recent first, capped like the histories.
	for i := len(e.bets) - 1; i >= 0 && len(book) < models.HistoryLimit; i-- {
		b := e.bets[i]
		book = append(book, models.BookEntry{
			ID:        b.id,
			User:      b.user,
			Amount:    b.amount,
			Selection: b.selection,
			Status:    "waiting",
		})
	}
	return book
}

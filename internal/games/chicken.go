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

const (
	chickenTick         = 100 * time.Millisecond
	chickenWaitDuration = 15 * time.Second
	chickenRaceDuration = 10 * time.Second
	chickenPauseDelay   = 5 * time.Second
)

type chickenBet struct {
	id        string
	userID    int64
	user      string // masked
	amount    float64
	chickenID int
}

// ChickenEngine runs the four-runner race rounds. The winner is drawn at
// the finish with probability inversely proportional to each runner's odds,
// so every runner carries the same house margin.
type ChickenEngine struct {
	ledger Ledger
	bc     services.Broadcaster

	mu        sync.Mutex
	rng       *rand.Rand
	status    models.RoundStatus
	period    string
	waitLeft  time.Duration
	raceLeft  time.Duration
	pauseLeft time.Duration
	winner    int
	runners   []models.ChickenRunner
	probs     []float64
	history   []int
	bets      []*chickenBet
}

func NewChickenEngine(ledger Ledger, bc services.Broadcaster) *ChickenEngine {
	runners := models.DefaultChickenRunners()
	e := &ChickenEngine{
		ledger:  ledger,
		bc:      bc,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		runners: runners,
		probs:   models.ChickenWinProbabilities(runners),
	}
	e.resetLocked(time.Now())
	return e
}

// SetBroadcaster swaps the event sink. Call before Run starts ticking.
func (e *ChickenEngine) SetBroadcaster(bc services.Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bc = bc
}

func (e *ChickenEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(chickenTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.step()
		}
	}
}

func (e *ChickenEngine) resetLocked(now time.Time) {
	e.status = models.RoundStatusWaiting
	e.waitLeft = chickenWaitDuration
	e.winner = 0
	e.period = models.RoundPeriod(now)
	e.bets = nil
}

func (e *ChickenEngine) step() {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.status {
	case models.RoundStatusWaiting:
		e.waitLeft -= chickenTick
		if e.waitLeft <= 0 {
			e.status = models.RoundStatusRunning
			e.raceLeft = chickenRaceDuration
			e.bc.Publish("chicken:start", map[string]any{
				"period":          e.period,
				"duration_millis": chickenRaceDuration.Milliseconds(),
			})
			return
		}
		e.bc.Publish("chicken:waiting", map[string]any{"time_left": e.waitLeft.Milliseconds()})

	case models.RoundStatusRunning:
		e.raceLeft -= chickenTick
		if e.raceLeft <= 0 {
			e.finishLocked()
			return
		}
		e.bc.Publish("chicken:update", map[string]any{"time_left": e.raceLeft.Milliseconds()})

	case models.RoundStatusFinished:
		e.pauseLeft -= chickenTick
		if e.pauseLeft <= 0 {
			e.resetLocked(time.Now())
			e.bc.Publish("chicken:waiting", map[string]any{"time_left": e.waitLeft.Milliseconds()})
		}
	}
}

func (e *ChickenEngine) finishLocked() {
	e.settleLocked(e.drawWinnerLocked())
}

// settleLocked commits the winner and settles the book. Per-account failures
// are logged and skipped.
func (e *ChickenEngine) settleLocked(winner int) {
	e.status = models.RoundStatusFinished
	e.pauseLeft = chickenPauseDelay
	e.winner = winner
	e.history = pushHistory(e.history, e.winner)

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	odds := 0.0
	for _, r := range e.runners {
		if r.ID == e.winner {
			odds = r.Odds
		}
	}

	for _, b := range e.bets {
		won := b.chickenID == e.winner
		payout := 0.0
		multiplier := 0.0
		outcome := "lose"
		if won {
			multiplier = odds
			payout = b.amount * odds
			outcome = "win"
			_, err := e.ledger.SettleWin(ctx, b.userID, payout, models.TransactionTypeWin, "chicken:"+e.period)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"user_id": b.userID,
					"period":  e.period,
				}).Error("Failed to settle chicken payout")
				continue
			}
		}
		err := e.ledger.SaveGameRecord(ctx, &models.GameRecord{
			GameType:   "chicken",
			UserID:     b.userID,
			BetAmount:  b.amount,
			Multiplier: multiplier,
			Payout:     payout,
			Result:     outcome,
		})
		if err != nil {
			log.WithError(err).WithField("user_id", b.userID).Error("Failed to record chicken bet")
		}
	}

	e.bc.Publish("chicken:result", map[string]any{
		"winner":  e.winner,
		"period":  e.period,
		"history": append([]int(nil), e.history...),
	})
}

func (e *ChickenEngine) drawWinnerLocked() int {
	r := e.rng.Float64()
	acc := 0.0
	for i, p := range e.probs {
		acc += p
		if r < acc {
			return e.runners[i].ID
		}
	}
	return e.runners[len(e.runners)-1].ID
}

// PlaceBet stakes amount on a runner during the betting window.
func (e *ChickenEngine) PlaceBet(ctx context.Context, userID int64, username string, amount float64, chickenID int) (*BetResult, error) {
	valid := false
	for _, r := range e.runners {
		if r.ID == chickenID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("unknown chicken %d: %w", chickenID, models.ErrInvalidState)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.RoundStatusWaiting {
		return nil, models.ErrBettingClosed
	}

	balance, err := e.ledger.PlaceBet(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	b := &chickenBet{
		id:        models.GenerateBetID(),
		userID:    userID,
		user:      models.MaskName(username),
		amount:    amount,
		chickenID: chickenID,
	}
	e.bets = append(e.bets, b)

	e.bc.Publish("chicken:bet_update", map[string]any{"bets": e.bookLocked()})

	return &BetResult{BetID: b.id, NewBalance: balance, Period: e.period}, nil
}

func (e *ChickenEngine) State() models.ChickenRoundState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := models.ChickenRoundState{
		Status:   e.status,
		Duration: chickenRaceDuration.Milliseconds(),
		Period:   e.period,
		Winner:   e.winner,
		Runners:  append([]models.ChickenRunner(nil), e.runners...),
		History:  append([]int(nil), e.history...),
		Bets:     e.bookLocked(),
	}
	if e.status == models.RoundStatusWaiting {
		state.WaitMillis = e.waitLeft.Milliseconds()
	}
	return state
}

func (e *ChickenEngine) bookLocked() []models.BookEntry {
	book := make([]models.BookEntry, 0, len(e.bets))
	for i := len(e.bets) - 1; i >= 0 && len(book) < models.HistoryLimit; i-- {
		b := e.bets[i]
		book = append(book, models.BookEntry{
			ID:        b.id,
			User:      b.user,
			Amount:    b.amount,
			Selection: fmt.Sprintf("%d", b.chickenID),
			Status:    "waiting",
		})
	}
	return book
}

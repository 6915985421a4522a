package games

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tsf-arena-backend/internal/models"
	"tsf-arena-backend/internal/services"
)

const (
	crashTick         = 100 * time.Millisecond
	crashWaitDuration = 5 * time.Second
	crashRestartDelay = 3 * time.Second

	settleTimeout = 5 * time.Second
)

type crashBet struct {
	id         string
	userID     int64
	user       string // masked
	amount     float64
	resolved   bool
	cashedOut  bool
	multiplier float64
}

// CrashEngine owns one continuously running crash round. All state lives
// behind the engine mutex: the tick loop, bet placement and cashout all
// serialize on it, so a cashout can never interleave with the crash
// transition.
type CrashEngine struct {
	ledger Ledger
	bc     services.Broadcaster

	mu         sync.Mutex
	rng        *rand.Rand
	status     models.RoundStatus
	period     string
	crashPoint float64
	multiplier float64
	startedAt  time.Time
	waitLeft   time.Duration
	pauseLeft  time.Duration
	history    []float64
	bets       map[int64]*crashBet
}

func NewCrashEngine(ledger Ledger, bc services.Broadcaster) *CrashEngine {
	e := &CrashEngine{
		ledger: ledger,
		bc:     bc,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.resetLocked(time.Now())
	return e
}

// SetBroadcaster swaps the event sink. Call before Run starts ticking.
func (e *CrashEngine) SetBroadcaster(bc services.Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bc = bc
}

// Run drives the round state machine until ctx is cancelled. Rounds always
// run to completion; cancellation only stops the loop between ticks.
func (e *CrashEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(crashTick)
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

// resetLocked starts a fresh betting window and pre-draws the crash point.
// Callers must hold e.mu (or own the engine exclusively).
func (e *CrashEngine) resetLocked(now time.Time) {
	e.status = models.RoundStatusWaiting
	e.multiplier = 1.0
	e.waitLeft = crashWaitDuration
	e.crashPoint = models.CrashPointFromDraw(uint64(e.rng.Int63n(1 << 32)))
	e.period = models.RoundPeriod(now)
	e.bets = make(map[int64]*crashBet)
}

func (e *CrashEngine) step(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.status {
	case models.RoundStatusWaiting:
		e.waitLeft -= crashTick
		if e.waitLeft <= 0 {
			e.status = models.RoundStatusRunning
			e.startedAt = now
			e.bc.Publish("crash:start", map[string]any{"period": e.period})
			return
		}
		e.bc.Publish("crash:waiting", map[string]any{"time_left": e.waitLeft.Milliseconds()})

	case models.RoundStatusRunning:
		e.multiplier = models.CrashMultiplier(now.Sub(e.startedAt).Seconds())
		if e.multiplier >= e.crashPoint {
			e.multiplier = e.crashPoint
			e.crashLocked()
			return
		}
		e.bc.Publish("crash:update", map[string]any{
			"multiplier": e.multiplier,
			"status":     models.RoundStatusRunning,
		})

	case models.RoundStatusCrashed:
		e.pauseLeft -= crashTick
		if e.pauseLeft <= 0 {
			e.resetLocked(now)
			e.bc.Publish("crash:waiting", map[string]any{"time_left": e.waitLeft.Milliseconds()})
		}
	}
}

// crashLocked commits the crash. From this point every cashout attempt is
// rejected; unresolved bets lose their already-debited stakes.
func (e *CrashEngine) crashLocked() {
	e.status = models.RoundStatusCrashed
	e.pauseLeft = crashRestartDelay
	e.history = pushHistory(e.history, e.crashPoint)

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	for _, b := range e.bets {
		if b.resolved {
			continue
		}
		b.resolved = true
		err := e.ledger.SaveGameRecord(ctx, &models.GameRecord{
			GameType:   "crash",
			UserID:     b.userID,
			BetAmount:  b.amount,
			Multiplier: 0,
			Payout:     0,
			Result:     "lose",
		})
		if err != nil {
			// One account's record failure never blocks the round.
			log.WithError(err).WithField("user_id", b.userID).Error("Failed to record crash loss")
		}
	}

	e.bc.Publish("crash:update", map[string]any{
		"multiplier": e.multiplier,
		"status":     models.RoundStatusCrashed,
		"history":    append([]float64(nil), e.history...),
	})
	e.bc.Publish("crash:bet_update", map[string]any{"bets": e.bookLocked()})
}

// PlaceBet stakes amount on the upcoming round. Only accepted while the
// round is waiting; one bet per account per round.
func (e *CrashEngine) PlaceBet(ctx context.Context, userID int64, username string, amount float64) (*BetResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.RoundStatusWaiting {
		return nil, models.ErrBettingClosed
	}
	if _, exists := e.bets[userID]; exists {
		return nil, models.ErrBetAlreadyPlaced
	}

	balance, err := e.ledger.PlaceBet(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	b := &crashBet{
		id:     models.GenerateBetID(),
		userID: userID,
		user:   models.MaskName(username),
		amount: amount,
	}
	e.bets[userID] = b

	e.bc.Publish("crash:bet_update", map[string]any{"bets": e.bookLocked()})

	return &BetResult{BetID: b.id, NewBalance: balance, Period: e.period}, nil
}

// Cashout settles the caller's bet at the engine's current multiplier. The
// payout is computed server-side from the recorded bet; a client-reported
// multiplier is never trusted. Once the crash has committed, the attempt
// fails with ErrRoundNotRunning.
func (e *CrashEngine) Cashout(ctx context.Context, userID int64) (*CashoutResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.RoundStatusRunning {
		return nil, models.ErrRoundNotRunning
	}

	b, exists := e.bets[userID]
	if !exists {
		return nil, models.ErrNotFound
	}
	if b.resolved {
		return nil, models.ErrAlreadySettled
	}

	multiplier := e.multiplier
	payout := b.amount * multiplier

	b.resolved = true
	b.cashedOut = true
	b.multiplier = multiplier

	balance, err := e.ledger.SettleWin(ctx, userID, payout, models.TransactionTypeWin, "crash:"+e.period)
	if err != nil {
		// Credit failed: leave the bet live so the player can retry.
		b.resolved = false
		b.cashedOut = false
		b.multiplier = 0
		return nil, err
	}

	if err := e.ledger.SaveGameRecord(ctx, &models.GameRecord{
		GameType:   "crash",
		UserID:     userID,
		BetAmount:  b.amount,
		Multiplier: multiplier,
		Payout:     payout,
		Result:     "win",
	}); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to record crash cashout")
	}

	e.bc.Publish("crash:bet_update", map[string]any{"bets": e.bookLocked()})

	return &CashoutResult{
		BetID:      b.id,
		Multiplier: multiplier,
		Payout:     payout,
		NewBalance: balance,
	}, nil
}

// State returns a snapshot for new subscribers. The pending crash point is
// intentionally absent.
func (e *CrashEngine) State() models.CrashRoundState {
	e.mu.Lock()
	defer e.mu.Unlock()

	waitMillis := int64(0)
	if e.status == models.RoundStatusWaiting {
		waitMillis = e.waitLeft.Milliseconds()
	}

	return models.CrashRoundState{
		Status:     e.status,
		Multiplier: e.multiplier,
		WaitMillis: waitMillis,
		Period:     e.period,
		History:    append([]float64(nil), e.history...),
		Bets:       e.bookLocked(),
	}
}

func (e *CrashEngine) bookLocked() []models.BookEntry {
	book := make([]models.BookEntry, 0, len(e.bets))
	for _, b := range e.bets {
		status := "waiting"
		switch {
		case b.cashedOut:
			status = "cashed_out"
		case b.resolved:
			status = "lost"
		}
		book = append(book, models.BookEntry{
			ID:         b.id,
			User:       b.user,
			Amount:     b.amount,
			Multiplier: b.multiplier,
			Status:     status,
		})
	}
	return book
}

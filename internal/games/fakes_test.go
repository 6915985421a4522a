package games

import (
	"context"
	"sync"

	"tsf-arena-backend/internal/models"
)

// fakeLedger is an in-memory stand-in for the store. It enforces the same
// overdraft rule and can be told to fail credits for specific accounts.
type fakeLedger struct {
	mu         sync.Mutex
	balances   map[int64]float64
	records    []*models.GameRecord
	settles    []settleCall
	failSettle map[int64]error
}

type settleCall struct {
	userID    int64
	amount    float64
	kind      models.TransactionType
	reference string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[int64]float64),
		failSettle: make(map[int64]error),
	}
}

func (f *fakeLedger) fund(userID int64, amount float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = amount
}

func (f *fakeLedger) balance(userID int64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeLedger) PlaceBet(_ context.Context, userID int64, amount float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balances[userID] < amount {
		return 0, models.ErrInsufficientBalance
	}
	f.balances[userID] -= amount
	return f.balances[userID], nil
}

func (f *fakeLedger) SettleWin(_ context.Context, userID int64, amount float64, kind models.TransactionType, reference string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failSettle[userID]; err != nil {
		return 0, err
	}
	f.balances[userID] += amount
	f.settles = append(f.settles, settleCall{userID: userID, amount: amount, kind: kind, reference: reference})
	return f.balances[userID], nil
}

func (f *fakeLedger) SaveGameRecord(_ context.Context, rec *models.GameRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) settlesFor(userID int64) []settleCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []settleCall
	for _, c := range f.settles {
		if c.userID == userID {
			calls = append(calls, c)
		}
	}
	return calls
}

func (f *fakeLedger) recordsFor(userID int64) []*models.GameRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	var recs []*models.GameRecord
	for _, r := range f.records {
		if r.UserID == userID {
			recs = append(recs, r)
		}
	}
	return recs
}

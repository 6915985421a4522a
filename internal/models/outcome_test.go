package models_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tsf-arena-backend/internal/models"
)

func TestCrashPointFromDraw(t *testing.T) {
	t.Run("multiple of 33 forces instant crash", func(t *testing.T) {
		for _, h := range []uint64{0, 33, 66, 33 * 1000, 33 * 130150524} {
			assert.Equal(t, 1.0, models.CrashPointFromDraw(h), "h=%d", h)
		}
	})

	t.Run("deterministic for a fixed draw", func(t *testing.T) {
		h := uint64(2147483648) // 2^31, mid-range
		first := models.CrashPointFromDraw(h)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, models.CrashPointFromDraw(h))
		}
		// (100*2^32 - 2^31) / (2^32 - 2^31) = 199, floor/100 = 1.99
		assert.Equal(t, 1.99, first)
	})

	t.Run("tail shape", func(t *testing.T) {
		// The curve starts at 1.00 for the lowest draws and explodes as h
		// approaches 2^32.
		assert.Equal(t, 1.0, models.CrashPointFromDraw(1))
		assert.Greater(t, models.CrashPointFromDraw(uint64(1)<<32-1), 1000.0)
	})

	t.Run("never below 1.00", func(t *testing.T) {
		for h := uint64(1); h < uint64(1)<<32; h += 104729 {
			cp := models.CrashPointFromDraw(h)
			assert.GreaterOrEqual(t, cp, 1.0, "h=%d", h)
		}
	})
}

func TestCrashMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, models.CrashMultiplier(0))
	assert.InDelta(t, math.E, models.CrashMultiplier(1/0.06), 1e-9)
	assert.Greater(t, models.CrashMultiplier(10), models.CrashMultiplier(5))
}

func TestWingoDerivation(t *testing.T) {
	cases := []struct {
		number int
		color  string
		size   string
	}{
		{0, "violet-red", "Small"},
		{1, "green", "Small"},
		{2, "red", "Small"},
		{3, "green", "Small"},
		{4, "red", "Small"},
		{5, "violet-green", "Big"},
		{6, "red", "Big"},
		{7, "green", "Big"},
		{8, "red", "Big"},
		{9, "green", "Big"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.color, models.WingoColor(tc.number), "number %d", tc.number)
		assert.Equal(t, tc.size, models.WingoSize(tc.number), "number %d", tc.number)
	}
}

func TestWingoPayoutMultiplier(t *testing.T) {
	seven := models.WingoResult{Number: 7, Color: "green", Size: "Big"}
	zero := models.WingoResult{Number: 0, Color: "violet-red", Size: "Small"}
	five := models.WingoResult{Number: 5, Color: "violet-green", Size: "Big"}

	assert.Equal(t, 2.0, models.WingoPayoutMultiplier("big", seven))
	assert.Equal(t, 0.0, models.WingoPayoutMultiplier("small", seven))
	assert.Equal(t, 2.0, models.WingoPayoutMultiplier("green", seven))
	assert.Equal(t, 0.0, models.WingoPayoutMultiplier("red", seven))
	assert.Equal(t, 9.0, models.WingoPayoutMultiplier("7", seven))
	assert.Equal(t, 0.0, models.WingoPayoutMultiplier("8", seven))

	// 0 counts for red and violet, 5 for green and violet.
	assert.Equal(t, 2.0, models.WingoPayoutMultiplier("red", zero))
	assert.Equal(t, 4.5, models.WingoPayoutMultiplier("violet", zero))
	assert.Equal(t, 2.0, models.WingoPayoutMultiplier("small", zero))
	assert.Equal(t, 2.0, models.WingoPayoutMultiplier("green", five))
	assert.Equal(t, 4.5, models.WingoPayoutMultiplier("violet", five))

	assert.Equal(t, 0.0, models.WingoPayoutMultiplier("bogus", seven))
}

func TestMinesMultiplier(t *testing.T) {
	// No reveals pays only the house-trimmed stake back.
	assert.InDelta(t, 0.97, models.MinesMultiplier(3, 0), 1e-9)

	// One reveal on a 3-mine board: 25/22 * 0.97.
	assert.InDelta(t, 25.0/22.0*0.97, models.MinesMultiplier(3, 1), 1e-9)

	// Multiplier grows with every reveal.
	prev := 0.0
	for revealed := 0; revealed <= 22; revealed++ {
		m := models.MinesMultiplier(3, revealed)
		assert.Greater(t, m, prev)
		prev = m
	}
}

func TestChickenWinProbabilities(t *testing.T) {
	runners := models.DefaultChickenRunners()
	probs := models.ChickenWinProbabilities(runners)

	total := 0.0
	for _, p := range probs {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	// Shorter odds mean a higher win probability.
	for i := 1; i < len(probs); i++ {
		assert.Greater(t, probs[i-1], probs[i])
	}

	// Every runner carries the same expected payout per staked unit.
	expected := probs[0] * runners[0].Odds
	for i := range runners {
		assert.InDelta(t, expected, probs[i]*runners[i].Odds, 1e-9)
	}
}

func TestRoundPeriod(t *testing.T) {
	p := models.RoundPeriod(time.Now())
	assert.Len(t, p, 6)
	assert.NotEqual(t, p, models.RoundPeriod(time.Now().Add(time.Second)))
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "ali***", models.MaskName("alice"))
	assert.Equal(t, "al***", models.MaskName("al"))
}

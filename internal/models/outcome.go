package models

import "math"

// CrashPointFromDraw maps a uniform draw h in [0, 2^32) to a crash
// multiplier. One in 33 draws forces an instant crash at 1.00x; the rest
// follow a heavy-tailed curve biased toward low multipliers.
func CrashPointFromDraw(h uint64) float64 {
	const e = uint64(1) << 32
	if h%33 == 0 {
		return 1.0
	}
	return math.Floor((float64(100*e)-float64(h))/float64(e-h)) / 100
}

// CrashMultiplier is the live multiplier after elapsed seconds of a running
// round.
func CrashMultiplier(elapsedSeconds float64) float64 {
	return math.Pow(math.E, 0.06*elapsedSeconds)
}

// Wingo draw derivation. 0 and 5 carry violet alongside the parity color.
func WingoColor(number int) string {
	switch {
	case number == 0:
		return "violet-red"
	case number == 5:
		return "violet-green"
	case number%2 == 0:
		return "red"
	default:
		return "green"
	}
}

func WingoSize(number int) string {
	if number >= 5 {
		return "Big"
	}
	return "Small"
}

// Wingo payout multipliers.
const (
	WingoPayoutSize   = 2
	WingoPayoutColor  = 2
	WingoPayoutViolet = 4.5
	WingoPayoutNumber = 9
)

// WingoPayoutMultiplier returns the multiplier a selection earns against a
// resolved draw, or 0 when the selection loses. Selections are "big",
// "small", "red", "green", "violet" or a single digit "0".."9".
func WingoPayoutMultiplier(selection string, result WingoResult) float64 {
	switch selection {
	case "big":
		if result.Size == "Big" {
			return WingoPayoutSize
		}
	case "small":
		if result.Size == "Small" {
			return WingoPayoutSize
		}
	case "red":
		if result.Color == "red" || result.Color == "violet-red" {
			return WingoPayoutColor
		}
	case "green":
		if result.Color == "green" || result.Color == "violet-green" {
			return WingoPayoutColor
		}
	case "violet":
		if result.Color == "violet-red" || result.Color == "violet-green" {
			return WingoPayoutViolet
		}
	default:
		if len(selection) == 1 && selection[0] >= '0' && selection[0] <= '9' {
			if int(selection[0]-'0') == result.Number {
				return WingoPayoutNumber
			}
		}
	}
	return 0
}

// Mines board parameters.
const (
	MinesGridSize  = 25
	MinesHouseEdge = 0.97
)

// MinesMultiplier is the payout multiplier after revealing `revealed` safe
// tiles on a board with `mines` mines: the product of survival odds per
// reveal, with a 3% house cut.
func MinesMultiplier(mines, revealed int) float64 {
	mult := 1.0
	remaining := MinesGridSize
	for i := 0; i < revealed; i++ {
		mult *= float64(remaining) / float64(remaining-mines)
		remaining--
	}
	return mult * MinesHouseEdge
}

// DefaultChickenRunners are the four race contenders with their fixed odds.
func DefaultChickenRunners() []ChickenRunner {
	return []ChickenRunner{
		{ID: 1, Name: "Red Rooster", Odds: 2.5},
		{ID: 2, Name: "Blue Bird", Odds: 3.0},
		{ID: 3, Name: "Green Clucker", Odds: 4.0},
		{ID: 4, Name: "Yellow Pecker", Odds: 5.0},
	}
}

// ChickenWinProbabilities weights each runner by the inverse of its odds so
// every runner carries the same house margin.
func ChickenWinProbabilities(runners []ChickenRunner) []float64 {
	total := 0.0
	for _, r := range runners {
		total += 1 / r.Odds
	}
	probs := make([]float64, len(runners))
	for i, r := range runners {
		probs[i] = 1 / (r.Odds * total)
	}
	return probs
}

// CoinFlip pays double or nothing.
const CoinFlipPayout = 2

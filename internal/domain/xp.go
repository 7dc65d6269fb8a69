package domain

import "math"

// XP constants. Memorized-name and referral awards are flat and never
// streak-scaled.
const (
	DefaultTaskXP     = 10
	MemorizedNameXP   = 100
	ReferralBaseXP    = 100
	ReferralPaymentXP = 400

	MaxStreakMultiplier = 3.0
)

// taskXP maps daily task identifiers to their base XP value.
var taskXP = map[string]int{
	"fasting":      100,
	"fajr":         50,
	"duha":         30,
	"dhuhr":        50,
	"asr":          50,
	"maghrib":      50,
	"isha":         50,
	"quranRead":    50,
	"morningDhikr": 20,
	"eveningDhikr": 20,
}

// BaseXP returns the base XP of a task identifier. Unknown identifiers
// fall back to DefaultTaskXP instead of erroring; the second return value
// lets the caller log the anomaly.
func BaseXP(taskID string) (int, bool) {
	if xp, ok := taskXP[taskID]; ok {
		return xp, true
	}
	return DefaultTaskXP, false
}

// StreakMultiplier computes the XP multiplier for the streak value before
// the current sync: 1.0 + 0.1 per streak day, capped at 3.0.
func StreakMultiplier(streak int) float64 {
	m := 1.0 + 0.1*float64(streak)
	if m > MaxStreakMultiplier {
		return MaxStreakMultiplier
	}
	return m
}

// ScaleXP applies a multiplier to a base award, rounding down.
func ScaleXP(base int, multiplier float64) int {
	return int(math.Floor(float64(base) * multiplier))
}

// ReferralMultiplier selects the registration bonus multiplier from the
// referrer's cumulative registration count for the day, after increment.
func ReferralMultiplier(dailyCount int) float64 {
	switch {
	case dailyCount >= 50:
		return 2.0
	case dailyCount >= 20:
		return 1.6
	case dailyCount >= 5:
		return 1.3
	default:
		return 1.0
	}
}

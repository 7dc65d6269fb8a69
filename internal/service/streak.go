package service

import "imantap/internal/domain"

// UpdateStreak decides whether the day streak continues, resets or stays
// put. It is evaluated only for syncs that actually earned XP: a streak
// day is a calendar day with at least one XP-earning action.
func UpdateStreak(current, longest int, lastActive, today string, earnedToday bool) (newStreak, newLongest int, newLastActive string) {
	if !earnedToday {
		return current, longest, lastActive
	}

	switch lastActive {
	case domain.Yesterday(today):
		newStreak = current + 1
	case today:
		// Already active today from an earlier sync; idempotent.
		newStreak = current
	default:
		newStreak = 1
	}

	newLongest = longest
	if newStreak > newLongest {
		newLongest = newStreak
	}
	return newStreak, newLongest, today
}

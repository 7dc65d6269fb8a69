package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name           string
		current        int
		longest        int
		lastActive     string
		today          string
		earnedToday    bool
		expectedStreak int
		expectedLong   int
		expectedActive string
	}{
		{
			name:           "no XP earned leaves everything untouched",
			current:        5,
			longest:        8,
			lastActive:     "2026-02-18",
			today:          "2026-02-20",
			earnedToday:    false,
			expectedStreak: 5,
			expectedLong:   8,
			expectedActive: "2026-02-18",
		},
		{
			name:           "consecutive day extends the streak",
			current:        5,
			longest:        5,
			lastActive:     "2026-02-19",
			today:          "2026-02-20",
			earnedToday:    true,
			expectedStreak: 6,
			expectedLong:   6,
			expectedActive: "2026-02-20",
		},
		{
			name:           "second sync on the same day is idempotent",
			current:        6,
			longest:        6,
			lastActive:     "2026-02-20",
			today:          "2026-02-20",
			earnedToday:    true,
			expectedStreak: 6,
			expectedLong:   6,
			expectedActive: "2026-02-20",
		},
		{
			name:           "a missed day resets to one",
			current:        12,
			longest:        12,
			lastActive:     "2026-02-17",
			today:          "2026-02-20",
			earnedToday:    true,
			expectedStreak: 1,
			expectedLong:   12,
			expectedActive: "2026-02-20",
		},
		{
			name:           "first ever activity starts at one",
			current:        0,
			longest:        0,
			lastActive:     "",
			today:          "2026-02-20",
			earnedToday:    true,
			expectedStreak: 1,
			expectedLong:   1,
			expectedActive: "2026-02-20",
		},
		{
			name:           "longest streak is never lowered",
			current:        2,
			longest:        15,
			lastActive:     "2026-02-19",
			today:          "2026-02-20",
			earnedToday:    true,
			expectedStreak: 3,
			expectedLong:   15,
			expectedActive: "2026-02-20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak, longest, lastActive := UpdateStreak(
				tt.current, tt.longest, tt.lastActive, tt.today, tt.earnedToday,
			)
			assert.Equal(t, tt.expectedStreak, streak)
			assert.Equal(t, tt.expectedLong, longest)
			assert.Equal(t, tt.expectedActive, lastActive)
		})
	}
}

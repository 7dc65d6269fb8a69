package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYesterday(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{
			name:     "mid month",
			date:     "2026-02-20",
			expected: "2026-02-19",
		},
		{
			name:     "month boundary",
			date:     "2026-03-01",
			expected: "2026-02-28",
		},
		{
			name:     "year boundary",
			date:     "2026-01-01",
			expected: "2025-12-31",
		},
		{
			name:     "invalid date",
			date:     "not-a-date",
			expected: "",
		},
		{
			name:     "empty",
			date:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Yesterday(tt.date))
		})
	}
}

func TestParseDayKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		expectedN  int
		expectedOK bool
	}{
		{name: "first day", key: "day_1", expectedN: 1, expectedOK: true},
		{name: "last day", key: "day_30", expectedN: 30, expectedOK: true},
		{name: "no prefix", key: "2026-02-20", expectedOK: false},
		{name: "not a number", key: "day_abc", expectedOK: false},
		{name: "zero", key: "day_0", expectedOK: false},
		{name: "negative", key: "day_-3", expectedOK: false},
		{name: "empty suffix", key: "day_", expectedOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := ParseDayKey(tt.key)
			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectedOK {
				assert.Equal(t, tt.expectedN, n)
			}
		})
	}
}

func TestDayDate(t *testing.T) {
	tests := []struct {
		name      string
		anchor    string
		dayNumber int
		expected  string
		expectErr bool
	}{
		{
			name:      "day one is the anchor itself",
			anchor:    "2026-02-19",
			dayNumber: 1,
			expected:  "2026-02-19",
		},
		{
			name:      "day ten crosses into march",
			anchor:    "2026-02-19",
			dayNumber: 11,
			expected:  "2026-03-01",
		},
		{
			name:      "day thirty",
			anchor:    "2026-02-19",
			dayNumber: 30,
			expected:  "2026-03-20",
		},
		{
			name:      "bad anchor",
			anchor:    "nope",
			dayNumber: 1,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := DayDate(tt.anchor, tt.dayNumber)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, date)
		})
	}
}

func TestDateAfter(t *testing.T) {
	assert.True(t, DateAfter("2026-03-21", "2026-03-20"))
	assert.False(t, DateAfter("2026-03-20", "2026-03-20"))
	assert.False(t, DateAfter("2026-03-19", "2026-03-20"))
}

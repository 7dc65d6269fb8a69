package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for all calendar-date strings.
const DateLayout = "2006-01-02"

// FormatDate renders a time as a calendar-date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar-date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Today returns the current calendar date in the reference timezone.
func Today(loc *time.Location) string {
	return time.Now().In(loc).Format(DateLayout)
}

// Yesterday returns the calendar date one day before the given one.
// An unparseable input yields an empty string, which never matches a
// stored lastActiveDate.
func Yesterday(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return FormatDate(t.AddDate(0, 0, -1))
}

// DayKey builds the "day_N" key used by the Ramadan and preparation
// progress namespaces.
func DayKey(n int) string {
	return fmt.Sprintf("day_%d", n)
}

// ParseDayKey extracts the day number from a "day_N" key.
func ParseDayKey(key string) (int, bool) {
	rest, found := strings.CutPrefix(key, "day_")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// DayDate derives the calendar date of a sequential day number relative
// to a namespace anchor: anchor + (dayNumber - 1) days.
func DayDate(anchor string, dayNumber int) (string, error) {
	t, err := ParseDate(anchor)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, dayNumber-1)), nil
}

// DateAfter reports whether a falls strictly after b. The layout is
// lexicographically ordered, so plain string comparison is exact.
func DateAfter(a, b string) bool {
	return a > b
}

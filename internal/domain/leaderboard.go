package domain

// LeaderboardEntry is one row of the global or friends leaderboard.
type LeaderboardEntry struct {
	UserID         int64    `json:"userId"`
	Username       string   `json:"username"`
	Name           string   `json:"name"`
	PhotoURL       string   `json:"photoUrl"`
	XP             int      `json:"xp"`
	CurrentStreak  int      `json:"currentStreak"`
	UnlockedBadges []string `json:"unlockedBadges"`
	InvitedCount   int      `json:"invitedCount"`
	Rank           int      `json:"rank"`
}

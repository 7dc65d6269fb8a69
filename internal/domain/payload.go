package domain

import "encoding/json"

// ProgressUpdate is the partial sync payload from the mini-app. A nil
// namespace or pointer field means "no change offered this call", never
// "clear everything". XP, streak and ledger fields are absent here on
// purpose: they are server-computed only.
type ProgressUpdate struct {
	Progress            ProgressMap `json:"progress,omitempty"`
	PreparationProgress ProgressMap `json:"preparationProgress,omitempty"`
	BasicProgress       ProgressMap `json:"basicProgress,omitempty"`
	MemorizedNames      *[]int      `json:"memorizedNames,omitempty"`

	// Passthrough profile fields, persisted verbatim.
	Name             *string         `json:"name,omitempty"`
	Username         *string         `json:"username,omitempty"`
	PhotoURL         *string         `json:"photoUrl,omitempty"`
	CompletedJuzs    *[]int          `json:"completedJuzs,omitempty"`
	QuranKhatams     *int            `json:"quranKhatams,omitempty"`
	CompletedTasks   *[]string       `json:"completedTasks,omitempty"`
	CustomTasks      json.RawMessage `json:"customTasks,omitempty"`
	QuranGoal        *int            `json:"quranGoal,omitempty"`
	DailyQuranGoal   *int            `json:"dailyQuranGoal,omitempty"`
	DailyCharityGoal *int            `json:"dailyCharityGoal,omitempty"`
	Language         *string         `json:"language,omitempty"`
}

// FullProfile is the read-only projection returned to the mini-app.
type FullProfile struct {
	UserID              int64           `json:"userId"`
	Username            string          `json:"username"`
	Name                string          `json:"name"`
	PhotoURL            string          `json:"photoUrl"`
	PromoCode           string          `json:"promoCode"`
	InvitedCount        int             `json:"invitedCount"`
	Progress            ProgressMap     `json:"progress"`
	PreparationProgress ProgressMap     `json:"preparationProgress"`
	BasicProgress       ProgressMap     `json:"basicProgress"`
	MemorizedNames      []int           `json:"memorizedNames"`
	CompletedJuzs       []int           `json:"completedJuzs"`
	QuranKhatams        int             `json:"quranKhatams"`
	CompletedTasks      []string        `json:"completedTasks"`
	CustomTasks         json.RawMessage `json:"customTasks,omitempty"`
	QuranGoal           int             `json:"quranGoal"`
	DailyQuranGoal      int             `json:"dailyQuranGoal"`
	DailyCharityGoal    int             `json:"dailyCharityGoal"`
	Language            string          `json:"language"`
	XP                  int             `json:"xp"`
	CurrentStreak       int             `json:"currentStreak"`
	LongestStreak       int             `json:"longestStreak"`
	LastActiveDate      string          `json:"lastActiveDate"`
	UnlockedBadges      []string        `json:"unlockedBadges"`
	HasRedeemedReferral bool            `json:"hasRedeemedReferral"`
}

// FullProfile builds the mini-app projection from the snapshot.
func (u *User) FullProfile() FullProfile {
	return FullProfile{
		UserID:              u.UserID,
		Username:            u.Username,
		Name:                u.Name,
		PhotoURL:            u.PhotoURL,
		PromoCode:           u.PromoCode,
		InvitedCount:        u.InvitedCount,
		Progress:            u.Progress,
		PreparationProgress: u.PreparationProgress,
		BasicProgress:       u.BasicProgress,
		MemorizedNames:      u.MemorizedNames,
		CompletedJuzs:       u.CompletedJuzs,
		QuranKhatams:        u.QuranKhatams,
		CompletedTasks:      u.CompletedTasks,
		CustomTasks:         u.CustomTasks,
		QuranGoal:           u.QuranGoal,
		DailyQuranGoal:      u.DailyQuranGoal,
		DailyCharityGoal:    u.DailyCharityGoal,
		Language:            u.Language,
		XP:                  u.XP,
		CurrentStreak:       u.CurrentStreak,
		LongestStreak:       u.LongestStreak,
		LastActiveDate:      u.LastActiveDate,
		UnlockedBadges:      u.UnlockedBadges,
		HasRedeemedReferral: u.UsedPromoCode != "",
	}
}

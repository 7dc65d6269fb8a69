package domain

import (
	"encoding/json"
	"time"
)

// DayFlags is the set of named boolean task flags for one day.
type DayFlags map[string]bool

// ProgressMap is one progress namespace: day key -> task flags.
// The Ramadan and preparation namespaces use "day_N" keys, the basic
// namespace uses "YYYY-MM-DD" keys directly.
type ProgressMap map[string]DayFlags

// PaymentStatus tracks the manual payment-verification workflow
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRejected PaymentStatus = "rejected"
)

// AccessType describes what the user unlocked
type AccessType string

const (
	AccessNone AccessType = ""
	AccessDemo AccessType = "demo"
	AccessFull AccessType = "full"
)

// OnboardingStep represents user's position in the onboarding flow.
// Persisted on the user record so a restart doesn't lose the step.
type OnboardingStep string

const (
	StepNone            OnboardingStep = ""
	StepWaitingPhone    OnboardingStep = "waiting_phone"
	StepWaitingLocation OnboardingStep = "waiting_location"
	StepWaitingPromo    OnboardingStep = "waiting_promo"
	StepWaitingReceipt  OnboardingStep = "waiting_receipt"
	StepCompleted       OnboardingStep = "completed"
)

// Location is the user's geocoded position, collected during onboarding.
type Location struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// NotificationSettings controls prayer-time reminders.
type NotificationSettings struct {
	RamadanReminders      bool `json:"ramadanReminders"`
	ReminderMinutesBefore int  `json:"reminderMinutesBefore"`
}

// User is the per-user snapshot: identity, onboarding/payment state and the
// gamification fields mutated by progress syncs and referral events.
type User struct {
	UserID      int64
	Username    string
	Name        string
	PhotoURL    string
	PhoneNumber string
	PromoCode   string
	Language    string

	Location             Location
	NotificationSettings NotificationSettings

	ReferredBy         string // promo code this user registered with
	UsedPromoCode      string
	ReferralBonusGiven bool
	InvitedCount       int
	DailyReferrals     map[string]int // date -> registrations credited that day

	PaymentStatus PaymentStatus
	PaidAmount    int
	HasDiscount   bool
	ReceiptFileID string
	PaymentDate   *time.Time
	AccessType    AccessType
	DemoExpiresAt *time.Time

	OnboardingStep      OnboardingStep
	OnboardingCompleted bool

	Progress            ProgressMap
	PreparationProgress ProgressMap
	BasicProgress       ProgressMap
	MemorizedNames      []int
	EarnedTasks         Ledger

	// XP is server-computed only, never taken from client payloads.
	XP             int
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate string

	UnlockedBadges []string

	// Passthrough mini-app fields, persisted verbatim and never scored.
	CompletedJuzs    []int
	QuranKhatams     int
	CompletedTasks   []string
	CustomTasks      json.RawMessage
	QuranGoal        int
	DailyQuranGoal   int
	DailyCharityGoal int

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser returns a fresh snapshot with all counters zeroed.
func NewUser(userID int64, username, promoCode string) *User {
	now := time.Now()
	return &User{
		UserID:    userID,
		Username:  username,
		PromoCode: promoCode,
		Language:  "kk",
		NotificationSettings: NotificationSettings{
			RamadanReminders:      true,
			ReminderMinutesBefore: 30,
		},
		PaymentStatus:       PaymentUnpaid,
		Progress:            ProgressMap{},
		PreparationProgress: ProgressMap{},
		BasicProgress:       ProgressMap{},
		MemorizedNames:      []int{},
		EarnedTasks:         Ledger{},
		DailyReferrals:      map[string]int{},
		UnlockedBadges:      []string{},
		CompletedJuzs:       []int{},
		CompletedTasks:      []string{},
		QuranGoal:           30,
		DailyQuranGoal:      5,
		DailyCharityGoal:    1000,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// HasBadge reports whether the badge was already unlocked.
func (u *User) HasBadge(badge string) bool {
	for _, b := range u.UnlockedBadges {
		if b == badge {
			return true
		}
	}
	return false
}

package repository

import (
	"errors"
	"time"

	"imantap/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by SaveSnapshot when the stored
	// version no longer matches the one the snapshot was loaded with,
	// i.e. a concurrent sync won the race. The caller reloads and retries.
	ErrVersionConflict = errors.New("snapshot version conflict")
)

// UserRepository defines user snapshot operations.
type UserRepository interface {
	GetByID(userID int64) (*domain.User, error)
	GetByPromoCode(promoCode string) (*domain.User, error)

	// GetByUsername matches case-insensitively, with or without a
	// leading "@" stored on the record.
	GetByUsername(username string) (*domain.User, error)

	Create(u *domain.User) error

	// SaveSnapshot persists the progress and gamification fields with a
	// compare-and-swap on the version column.
	SaveSnapshot(u *domain.User, expectedVersion int64) error

	// SaveOnboarding persists profile and onboarding-flow fields.
	SaveOnboarding(u *domain.User) error

	// AddXP atomically increments the cumulative XP counter.
	AddXP(userID int64, amount int) error

	// IncrementDailyReferrals atomically bumps the per-date referral
	// counter and invitedCount, returning the new count for that date.
	IncrementDailyReferrals(userID int64, date string) (int, error)

	SetBadges(userID int64, badges []string) error

	SetPaymentPending(userID int64, receiptFileID string) error
	ApprovePayment(userID int64) error
	RejectPayment(userID int64, demoExpiresAt time.Time) error
	ActivateDemo(userID int64, expiresAt time.Time) error
	ListPendingPayments() ([]domain.User, error)

	ListExpiredDemo(now time.Time) ([]domain.User, error)
	ExpireDemoAccess(userID int64) error
	ListReminderRecipients() ([]domain.User, error)
}

// PromoRepository tracks single-use promo code redemptions.
type PromoRepository interface {
	IsUsed(promoCode string) (bool, error)
	MarkUsed(promoCode string, usedBy int64) error
}

// AdminRepository defines payment-manager bookkeeping.
type AdminRepository interface {
	IsAdmin(telegramID int64) (bool, error)
	List() ([]int64, error)
	Add(telegramID, addedBy int64, username string) error
	Remove(telegramID int64) error
}

// CircleRepository stores accountability circles and their membership
// rows. Membership is never deleted while the circle exists; status
// flips record leaves, declines and kicks.
type CircleRepository interface {
	Create(c *domain.Circle) error
	GetByID(circleID string) (*domain.Circle, error)
	GetByInviteCode(code string) (*domain.Circle, error)

	// HasActiveCircle reports whether the owner already runs a circle
	// with at least one active member.
	HasActiveCircle(ownerID int64) (bool, error)

	// ListByMember returns the circles where the user is an active or
	// pending member.
	ListByMember(userID int64) ([]domain.Circle, error)

	// UpsertMember inserts the membership row, or revives an existing
	// one with the given role and status.
	UpsertMember(circleID string, userID int64, role domain.CircleRole, status domain.CircleMemberStatus) error

	// SetMemberStatus flips the member's status. ErrNotFound when no
	// membership row exists.
	SetMemberStatus(circleID string, userID int64, status domain.CircleMemberStatus) error

	Delete(circleID string) error
}

// LeaderboardRepository defines read-only XP ranking queries.
type LeaderboardRepository interface {
	Global(limit, offset int) ([]domain.LeaderboardEntry, int, error)
	Friends(promoCode string, limit int) ([]domain.LeaderboardEntry, error)
	Rank(userID int64) (rank, total int, err error)
}

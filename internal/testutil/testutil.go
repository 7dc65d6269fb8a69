package testutil

import (
	"time"

	"imantap/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user snapshot with a fresh ledger.
func NewTestUser(userID int64, promoCode string) *domain.User {
	u := domain.NewUser(userID, "tester", promoCode)
	u.Version = 1
	return u
}

// NewPaidUser creates a user with full access.
func NewPaidUser(userID int64, promoCode string) *domain.User {
	u := NewTestUser(userID, promoCode)
	u.PaymentStatus = domain.PaymentPaid
	u.AccessType = domain.AccessFull
	u.OnboardingStep = domain.StepCompleted
	u.OnboardingCompleted = true
	return u
}

// NewDemoUser creates a user with demo access until the given time.
func NewDemoUser(userID int64, promoCode string, expiresAt time.Time) *domain.User {
	u := NewTestUser(userID, promoCode)
	u.AccessType = domain.AccessDemo
	u.DemoExpiresAt = &expiresAt
	return u
}

package service

import (
	"errors"
	"testing"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
	"imantap/internal/testutil"

	"github.com/stretchr/testify/assert"
)

// farEid keeps the campaign window open for tests that exercise awards.
const farEid = "2999-01-01"

func newReferralService(users repository.UserRepository, eidDate string) *ReferralService {
	return NewReferralService(users, nil, eidDate, time.UTC, testutil.NewTestLogger())
}

func TestReferralService_OnReferredUserRegistered(t *testing.T) {
	tests := []struct {
		name       string
		dailyCount int
		expectedXP int
	}{
		{name: "first referral of the day", dailyCount: 1, expectedXP: 100},
		{name: "fifth referral crosses the first tier", dailyCount: 5, expectedXP: 130},
		{name: "twentieth referral", dailyCount: 20, expectedXP: 160},
		{name: "fiftieth referral", dailyCount: 50, expectedXP: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockUserRepository)
			svc := newReferralService(mockRepo, farEid)

			today := domain.Today(time.UTC)
			mockRepo.On("IncrementDailyReferrals", int64(42), today).Return(tt.dailyCount, nil)
			mockRepo.On("AddXP", int64(42), tt.expectedXP).Return(nil)

			award := svc.OnReferredUserRegistered(42)

			assert.True(t, award.Success)
			assert.Equal(t, int64(42), award.ReferrerID)
			assert.Equal(t, tt.expectedXP, award.XPAwarded)
			assert.Equal(t, tt.dailyCount, award.DailyCount)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_OnReferredUserRegistered_AfterEid(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newReferralService(mockRepo, "2000-01-01")

	award := svc.OnReferredUserRegistered(42)

	assert.False(t, award.Success)
	assert.Equal(t, ReferralRefusedExpired, award.Reason)
	// No counter increment, no XP: nothing was mutated.
	mockRepo.AssertNotCalled(t, "IncrementDailyReferrals")
	mockRepo.AssertNotCalled(t, "AddXP")
}

func TestReferralService_OnReferredUserRegistered_UnknownReferrer(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newReferralService(mockRepo, farEid)

	today := domain.Today(time.UTC)
	mockRepo.On("IncrementDailyReferrals", int64(42), today).Return(0, repository.ErrNotFound)

	award := svc.OnReferredUserRegistered(42)

	assert.False(t, award.Success)
	assert.Equal(t, ReferralRefusedNotFound, award.Reason)
	mockRepo.AssertNotCalled(t, "AddXP")
}

func TestReferralService_OnReferredUserRegistered_XPWriteFails(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newReferralService(mockRepo, farEid)

	today := domain.Today(time.UTC)
	mockRepo.On("IncrementDailyReferrals", int64(42), today).Return(3, nil)
	mockRepo.On("AddXP", int64(42), 100).Return(errors.New("db down"))

	award := svc.OnReferredUserRegistered(42)

	assert.False(t, award.Success)
	assert.Equal(t, ReferralRefusedInternal, award.Reason)
	assert.Equal(t, 3, award.DailyCount)
}

func TestReferralService_OnReferredUserPaymentApproved(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newReferralService(mockRepo, farEid)

	mockRepo.On("AddXP", int64(42), domain.ReferralPaymentXP).Return(nil)

	award := svc.OnReferredUserPaymentApproved(42)

	assert.True(t, award.Success)
	assert.Equal(t, int64(42), award.ReferrerID)
	assert.Equal(t, 400, award.XPAwarded)
	assert.Equal(t, 1.0, award.Multiplier)
	mockRepo.AssertExpectations(t)
}

func TestReferralService_OnReferredUserPaymentApproved_AfterEid(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newReferralService(mockRepo, "2000-01-01")

	award := svc.OnReferredUserPaymentApproved(42)

	assert.False(t, award.Success)
	assert.Equal(t, ReferralRefusedExpired, award.Reason)
	mockRepo.AssertNotCalled(t, "AddXP")
}

package service

import (
	"testing"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
	"imantap/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOnboardingService(users repository.UserRepository, promos repository.PromoRepository) *OnboardingService {
	referrals := newReferralService(users, farEid)
	return NewOnboardingService(users, promos, referrals, testutil.NewTestLogger())
}

func TestOnboardingService_GetOrCreate_Existing(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	svc := newOnboardingService(mockUsers, nil)

	existing := testutil.NewTestUser(1, "ABC123")
	mockUsers.On("GetByID", int64(1)).Return(existing, nil)

	u, err := svc.GetOrCreate(1, "tester")

	assert.NoError(t, err)
	assert.Equal(t, existing, u)
	mockUsers.AssertNotCalled(t, "Create")
}

func TestOnboardingService_GetOrCreate_CreatesWithPromoCode(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	svc := newOnboardingService(mockUsers, nil)

	created := testutil.NewTestUser(1, "ABC123")

	mockUsers.On("GetByID", int64(1)).Return(nil, repository.ErrNotFound).Once()
	mockUsers.On("Create", mock.AnythingOfType("*domain.User")).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(0).(*domain.User)
		assert.Len(t, u.PromoCode, promoCodeLength)
		assert.Equal(t, "kk", u.Language)
	})
	mockUsers.On("GetByID", int64(1)).Return(created, nil).Once()

	u, err := svc.GetOrCreate(1, "tester")

	assert.NoError(t, err)
	assert.Equal(t, created, u)
	mockUsers.AssertExpectations(t)
}

func TestOnboardingService_CheckPromoCode(t *testing.T) {
	owner := testutil.NewPaidUser(42, "FRIEND")

	tests := []struct {
		name           string
		code           string
		redeemer       int64
		setup          func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository)
		expectedValid  bool
		expectedReason string
	}{
		{
			name:     "valid code",
			code:     "FRIEND",
			redeemer: 1,
			setup: func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository) {
				users.On("GetByPromoCode", "FRIEND").Return(owner, nil)
				promos.On("IsUsed", "FRIEND").Return(false, nil)
			},
			expectedValid: true,
		},
		{
			name:     "unknown code",
			code:     "NOPE42",
			redeemer: 1,
			setup: func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository) {
				users.On("GetByPromoCode", "NOPE42").Return(nil, repository.ErrNotFound)
			},
			expectedReason: PromoNotFound,
		},
		{
			name:     "own code",
			code:     "FRIEND",
			redeemer: 42,
			setup: func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository) {
				users.On("GetByPromoCode", "FRIEND").Return(owner, nil)
			},
			expectedReason: PromoOwnCode,
		},
		{
			name:     "already used",
			code:     "FRIEND",
			redeemer: 1,
			setup: func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository) {
				users.On("GetByPromoCode", "FRIEND").Return(owner, nil)
				promos.On("IsUsed", "FRIEND").Return(true, nil)
			},
			expectedReason: PromoAlreadyUsed,
		},
		{
			name:     "owner has not paid",
			code:     "POOR01",
			redeemer: 1,
			setup: func(users *testutil.MockUserRepository, promos *testutil.MockPromoRepository) {
				users.On("GetByPromoCode", "POOR01").Return(testutil.NewTestUser(7, "POOR01"), nil)
				promos.On("IsUsed", "POOR01").Return(false, nil)
			},
			expectedReason: PromoOwnerNotPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(testutil.MockUserRepository)
			mockPromos := new(testutil.MockPromoRepository)
			svc := newOnboardingService(mockUsers, mockPromos)

			tt.setup(mockUsers, mockPromos)

			check, err := svc.CheckPromoCode(tt.code, tt.redeemer)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedValid, check.Valid)
			assert.Equal(t, tt.expectedReason, check.Reason)
			if tt.expectedValid {
				assert.Equal(t, owner, check.Owner)
			}
		})
	}
}

func TestOnboardingService_RedeemPromoCode(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	mockPromos := new(testutil.MockPromoRepository)
	svc := newOnboardingService(mockUsers, mockPromos)

	u := testutil.NewTestUser(1, "USER01")
	owner := testutil.NewPaidUser(42, "FRIEND")

	mockUsers.On("SaveOnboarding", u).Return(nil)
	mockPromos.On("MarkUsed", "FRIEND", int64(1)).Return(nil)

	err := svc.RedeemPromoCode(u, owner)

	assert.NoError(t, err)
	assert.Equal(t, "FRIEND", u.ReferredBy)
	assert.Equal(t, "FRIEND", u.UsedPromoCode)
	assert.True(t, u.HasDiscount)
	mockPromos.AssertExpectations(t)
}

func TestOnboardingService_GrantRegistrationBonus(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	svc := newOnboardingService(mockUsers, nil)

	u := testutil.NewTestUser(1, "USER01")
	u.ReferredBy = "FRIEND"

	owner := testutil.NewPaidUser(42, "FRIEND")
	today := domain.Today(time.UTC)

	mockUsers.On("GetByPromoCode", "FRIEND").Return(owner, nil)
	mockUsers.On("IncrementDailyReferrals", int64(42), today).Return(1, nil)
	// Referrer bonus, then the referred user's own flat bonus.
	mockUsers.On("AddXP", int64(42), 100).Return(nil)
	mockUsers.On("AddXP", int64(1), domain.ReferralBaseXP).Return(nil)
	mockUsers.On("SaveOnboarding", u).Return(nil)

	award := svc.GrantRegistrationBonus(u)

	assert.True(t, award.Success)
	assert.Equal(t, int64(42), award.ReferrerID)
	assert.Equal(t, 100, award.XPAwarded)
	assert.True(t, u.ReferralBonusGiven)
	mockUsers.AssertExpectations(t)
}

func TestOnboardingService_GrantRegistrationBonus_Latched(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	svc := newOnboardingService(mockUsers, nil)

	u := testutil.NewTestUser(1, "USER01")
	u.ReferredBy = "FRIEND"
	u.ReferralBonusGiven = true

	award := svc.GrantRegistrationBonus(u)

	assert.False(t, award.Success)
	mockUsers.AssertNotCalled(t, "IncrementDailyReferrals")
	mockUsers.AssertNotCalled(t, "AddXP")
}

func TestOnboardingService_GrantRegistrationBonus_NoReferrer(t *testing.T) {
	mockUsers := new(testutil.MockUserRepository)
	svc := newOnboardingService(mockUsers, nil)

	u := testutil.NewTestUser(1, "USER01")

	award := svc.GrantRegistrationBonus(u)

	assert.False(t, award.Success)
	mockUsers.AssertNotCalled(t, "GetByPromoCode")
}

func TestGeneratePromoCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generatePromoCode()
		assert.Len(t, code, promoCodeLength)
		for _, r := range code {
			assert.Contains(t, promoCodeAlphabet, string(r))
		}
		seen[code] = true
	}
	// Collisions over 100 draws from 36^6 would be remarkable.
	assert.Greater(t, len(seen), 90)
}

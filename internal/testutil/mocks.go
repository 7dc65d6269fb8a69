package testutil

import (
	"time"

	"imantap/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(userID int64) (*domain.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByPromoCode(promoCode string) (*domain.User, error) {
	args := m.Called(promoCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*domain.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(u *domain.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserRepository) SaveSnapshot(u *domain.User, expectedVersion int64) error {
	args := m.Called(u, expectedVersion)
	return args.Error(0)
}

func (m *MockUserRepository) SaveOnboarding(u *domain.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockUserRepository) AddXP(userID int64, amount int) error {
	args := m.Called(userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementDailyReferrals(userID int64, date string) (int, error) {
	args := m.Called(userID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) SetBadges(userID int64, badges []string) error {
	args := m.Called(userID, badges)
	return args.Error(0)
}

func (m *MockUserRepository) SetPaymentPending(userID int64, receiptFileID string) error {
	args := m.Called(userID, receiptFileID)
	return args.Error(0)
}

func (m *MockUserRepository) ApprovePayment(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) RejectPayment(userID int64, demoExpiresAt time.Time) error {
	args := m.Called(userID, demoExpiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) ActivateDemo(userID int64, expiresAt time.Time) error {
	args := m.Called(userID, expiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) ListPendingPayments() ([]domain.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) ListExpiredDemo(now time.Time) ([]domain.User, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) ExpireDemoAccess(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) ListReminderRecipients() ([]domain.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockPromoRepository is a mock for repository.PromoRepository
type MockPromoRepository struct {
	mock.Mock
}

func (m *MockPromoRepository) IsUsed(promoCode string) (bool, error) {
	args := m.Called(promoCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPromoRepository) MarkUsed(promoCode string, usedBy int64) error {
	args := m.Called(promoCode, usedBy)
	return args.Error(0)
}

// MockAdminRepository is a mock for repository.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) IsAdmin(telegramID int64) (bool, error) {
	args := m.Called(telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) List() ([]int64, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockAdminRepository) Add(telegramID, addedBy int64, username string) error {
	args := m.Called(telegramID, addedBy, username)
	return args.Error(0)
}

func (m *MockAdminRepository) Remove(telegramID int64) error {
	args := m.Called(telegramID)
	return args.Error(0)
}

// MockLeaderboardRepository is a mock for repository.LeaderboardRepository
type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) Global(limit, offset int) ([]domain.LeaderboardEntry, int, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Int(1), args.Error(2)
}

func (m *MockLeaderboardRepository) Friends(promoCode string, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(promoCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardRepository) Rank(userID int64) (int, int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockCircleRepository is a mock for repository.CircleRepository
type MockCircleRepository struct {
	mock.Mock
}

func (m *MockCircleRepository) Create(c *domain.Circle) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockCircleRepository) GetByID(circleID string) (*domain.Circle, error) {
	args := m.Called(circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Circle), args.Error(1)
}

func (m *MockCircleRepository) GetByInviteCode(code string) (*domain.Circle, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Circle), args.Error(1)
}

func (m *MockCircleRepository) HasActiveCircle(ownerID int64) (bool, error) {
	args := m.Called(ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCircleRepository) ListByMember(userID int64) ([]domain.Circle, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Circle), args.Error(1)
}

func (m *MockCircleRepository) UpsertMember(circleID string, userID int64, role domain.CircleRole, status domain.CircleMemberStatus) error {
	args := m.Called(circleID, userID, role, status)
	return args.Error(0)
}

func (m *MockCircleRepository) SetMemberStatus(circleID string, userID int64, status domain.CircleMemberStatus) error {
	args := m.Called(circleID, userID, status)
	return args.Error(0)
}

func (m *MockCircleRepository) Delete(circleID string) error {
	args := m.Called(circleID)
	return args.Error(0)
}

package service

import (
	"testing"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
	"imantap/internal/testutil"

	"github.com/stretchr/testify/assert"
)

const testMainAdminID = int64(999)

func TestAccessService_Check(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		user           *domain.User
		repoErr        error
		expectedAccess bool
		expectedStatus string
		expectedReason string
	}{
		{
			name:           "main admin always has access",
			userID:         testMainAdminID,
			expectedAccess: true,
			expectedStatus: "paid",
			expectedReason: "admin_access",
		},
		{
			name:           "unknown user reported as unpaid",
			userID:         1,
			repoErr:        repository.ErrNotFound,
			expectedAccess: false,
			expectedStatus: "unpaid",
			expectedReason: "user_not_found",
		},
		{
			name:           "paid user",
			userID:         1,
			user:           testutil.NewPaidUser(1, "ABC123"),
			expectedAccess: true,
			expectedStatus: "paid",
		},
		{
			name:           "active demo",
			userID:         1,
			user:           testutil.NewDemoUser(1, "ABC123", time.Now().Add(time.Hour)),
			expectedAccess: true,
			expectedStatus: "demo",
		},
		{
			name:           "expired demo",
			userID:         1,
			user:           testutil.NewDemoUser(1, "ABC123", time.Now().Add(-time.Hour)),
			expectedAccess: false,
			expectedStatus: "unpaid",
			expectedReason: "demo_expired",
		},
		{
			name:   "pending payment",
			userID: 1,
			user: func() *domain.User {
				u := testutil.NewTestUser(1, "ABC123")
				u.PaymentStatus = domain.PaymentPending
				return u
			}(),
			expectedAccess: false,
			expectedStatus: "pending",
			expectedReason: "payment_pending",
		},
		{
			name:           "unpaid user",
			userID:         1,
			user:           testutil.NewTestUser(1, "ABC123"),
			expectedAccess: false,
			expectedStatus: "unpaid",
			expectedReason: "not_paid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(testutil.MockUserRepository)
			svc := NewAccessService(mockRepo, testMainAdminID)

			if tt.userID != testMainAdminID {
				if tt.repoErr != nil {
					mockRepo.On("GetByID", tt.userID).Return(nil, tt.repoErr)
				} else {
					mockRepo.On("GetByID", tt.userID).Return(tt.user, nil)
				}
			}

			info, err := svc.Check(tt.userID)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAccess, info.HasAccess)
			assert.Equal(t, tt.expectedStatus, info.PaymentStatus)
			assert.Equal(t, tt.expectedReason, info.Reason)
		})
	}
}

func TestAccessService_Check_RejectedWithLiveDemo(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := NewAccessService(mockRepo, testMainAdminID)

	// A rejected payment keeps its consolation demo until expiry.
	u := testutil.NewDemoUser(1, "ABC123", time.Now().Add(time.Hour))
	u.PaymentStatus = domain.PaymentRejected

	mockRepo.On("GetByID", int64(1)).Return(u, nil)

	info, err := svc.Check(1)

	assert.NoError(t, err)
	assert.True(t, info.HasAccess)
	assert.Equal(t, "demo", info.PaymentStatus)
}

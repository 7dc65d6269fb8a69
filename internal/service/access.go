package service

import (
	"errors"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
)

// AccessInfo is the mini-app access projection.
type AccessInfo struct {
	HasAccess     bool       `json:"hasAccess"`
	PaymentStatus string     `json:"paymentStatus"`
	Reason        string     `json:"reason,omitempty"`
	DemoExpires   *time.Time `json:"demoExpires,omitempty"`
}

// AccessService decides whether a user may open the mini-app.
type AccessService struct {
	users       repository.UserRepository
	mainAdminID int64
}

// NewAccessService creates a new access service
func NewAccessService(users repository.UserRepository, mainAdminID int64) *AccessService {
	return &AccessService{users: users, mainAdminID: mainAdminID}
}

// Check resolves the access state. Unknown users are reported as unpaid
// rather than erroring, so the mini-app can route them back to the bot.
func (s *AccessService) Check(userID int64) (AccessInfo, error) {
	if userID == s.mainAdminID {
		return AccessInfo{HasAccess: true, PaymentStatus: "paid", Reason: "admin_access"}, nil
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AccessInfo{PaymentStatus: "unpaid", Reason: "user_not_found"}, nil
		}
		return AccessInfo{}, err
	}

	// Demo is checked before the payment status: a rejected payment still
	// carries valid demo access until it expires.
	if u.AccessType == domain.AccessDemo && u.DemoExpiresAt != nil {
		if u.DemoExpiresAt.After(time.Now()) {
			return AccessInfo{HasAccess: true, PaymentStatus: "demo", DemoExpires: u.DemoExpiresAt}, nil
		}
		return AccessInfo{PaymentStatus: "unpaid", Reason: "demo_expired"}, nil
	}

	switch u.PaymentStatus {
	case domain.PaymentPaid:
		return AccessInfo{HasAccess: true, PaymentStatus: "paid"}, nil
	case domain.PaymentPending:
		return AccessInfo{PaymentStatus: "pending", Reason: "payment_pending"}, nil
	default:
		return AccessInfo{PaymentStatus: "unpaid", Reason: "not_paid"}, nil
	}
}

package service

import (
	"errors"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

// demoDuration is how long rejected or trial users keep demo access.
const demoDuration = 24 * time.Hour

// PaymentService drives the manual payment-verification workflow:
// receipt submission, admin approve/reject, and demo access.
type PaymentService struct {
	users     repository.UserRepository
	referrals *ReferralService
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(users repository.UserRepository, referrals *ReferralService, logger *zap.Logger) *PaymentService {
	return &PaymentService{users: users, referrals: referrals, logger: logger}
}

// SubmitReceipt stores the uploaded receipt and queues the user for
// admin review.
func (s *PaymentService) SubmitReceipt(userID int64, fileID string) error {
	if err := s.users.SetPaymentPending(userID, fileID); err != nil {
		return err
	}
	s.logger.Info("receipt submitted", zap.Int64("user_id", userID))
	return nil
}

// Approve grants full access and fires the referral payment event for the
// inviter, if any. A failing referral award never fails the approval.
func (s *PaymentService) Approve(userID int64) (*domain.User, ReferralAward, error) {
	if err := s.users.ApprovePayment(userID); err != nil {
		return nil, ReferralAward{}, err
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, ReferralAward{}, err
	}
	s.logger.Info("payment approved", zap.Int64("user_id", userID))

	var award ReferralAward
	if u.ReferredBy != "" {
		referrer, err := s.users.GetByPromoCode(u.ReferredBy)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Error("referrer lookup failed",
					zap.Int64("user_id", userID),
					zap.String("promo_code", u.ReferredBy),
					zap.Error(err))
			}
			return u, ReferralAward{Reason: ReferralRefusedNotFound}, nil
		}
		award = s.referrals.OnReferredUserPaymentApproved(referrer.UserID)
	}
	return u, award, nil
}

// Reject marks the payment rejected and hands out consolation demo
// access.
func (s *PaymentService) Reject(userID int64) (time.Time, error) {
	expiresAt := time.Now().Add(demoDuration)
	if err := s.users.RejectPayment(userID, expiresAt); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("payment rejected, demo granted",
		zap.Int64("user_id", userID), zap.Time("demo_expires_at", expiresAt))
	return expiresAt, nil
}

// ActivateDemo grants a trial without any payment.
func (s *PaymentService) ActivateDemo(userID int64) (time.Time, error) {
	expiresAt := time.Now().Add(demoDuration)
	if err := s.users.ActivateDemo(userID, expiresAt); err != nil {
		return time.Time{}, err
	}
	s.logger.Info("demo activated",
		zap.Int64("user_id", userID), zap.Time("demo_expires_at", expiresAt))
	return expiresAt, nil
}

// Pending lists users awaiting review.
func (s *PaymentService) Pending() ([]domain.User, error) {
	return s.users.ListPendingPayments()
}

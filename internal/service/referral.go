package service

import (
	"errors"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

// Reasons a referral event was refused.
const (
	ReferralRefusedExpired  = "expired"
	ReferralRefusedNotFound = "not_found"
	ReferralRefusedInternal = "internal"
)

// ReferralAward is the outcome of a referral event for the referrer.
type ReferralAward struct {
	Success    bool
	ReferrerID int64
	XPAwarded  int
	Multiplier float64
	DailyCount int
	Reason     string
}

// ReferralService awards XP to referrers on two events: the referred user
// registering and the referred user's payment being approved. Both are
// campaign-limited: past the eid cutoff no XP is computed and nothing is
// mutated. Failures here never propagate into the referred user's own
// registration or payment path.
type ReferralService struct {
	users   repository.UserRepository
	badges  *BadgeService
	eidDate string
	loc     *time.Location
	logger  *zap.Logger
}

// NewReferralService creates a new referral service
func NewReferralService(users repository.UserRepository, badges *BadgeService, eidDate string, loc *time.Location, logger *zap.Logger) *ReferralService {
	return &ReferralService{
		users:   users,
		badges:  badges,
		eidDate: eidDate,
		loc:     loc,
		logger:  logger,
	}
}

// OnReferredUserRegistered credits the referrer for a new registration:
// the daily counter is bumped atomically and the bonus is scaled by a
// step function of that day's cumulative count after increment.
func (s *ReferralService) OnReferredUserRegistered(referrerID int64) ReferralAward {
	today := domain.Today(s.loc)
	if domain.DateAfter(today, s.eidDate) {
		return ReferralAward{Reason: ReferralRefusedExpired}
	}

	count, err := s.users.IncrementDailyReferrals(referrerID, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("referral registration for unknown referrer",
				zap.Int64("referrer_id", referrerID))
			return ReferralAward{Reason: ReferralRefusedNotFound}
		}
		s.logger.Error("referral counter increment failed",
			zap.Int64("referrer_id", referrerID), zap.Error(err))
		return ReferralAward{Reason: ReferralRefusedInternal}
	}

	multiplier := domain.ReferralMultiplier(count)
	xp := domain.ScaleXP(domain.ReferralBaseXP, multiplier)

	if err := s.users.AddXP(referrerID, xp); err != nil {
		// Counter was bumped but XP was not; acceptable partial failure,
		// recoverable by support tooling.
		s.logger.Error("referral XP award failed",
			zap.Int64("referrer_id", referrerID), zap.Int("xp", xp), zap.Error(err))
		return ReferralAward{Reason: ReferralRefusedInternal, DailyCount: count}
	}

	if s.badges != nil {
		s.badges.Refresh(referrerID)
	}

	s.logger.Info("referral registration credited",
		zap.Int64("referrer_id", referrerID),
		zap.Int("daily_count", count),
		zap.Float64("multiplier", multiplier),
		zap.Int("xp", xp),
	)
	return ReferralAward{Success: true, ReferrerID: referrerID, XPAwarded: xp, Multiplier: multiplier, DailyCount: count}
}

// OnReferredUserPaymentApproved credits the flat payment bonus. No
// multiplier and no daily counter apply; the payment workflow fires this
// exactly once per referred user.
func (s *ReferralService) OnReferredUserPaymentApproved(referrerID int64) ReferralAward {
	today := domain.Today(s.loc)
	if domain.DateAfter(today, s.eidDate) {
		return ReferralAward{Reason: ReferralRefusedExpired}
	}

	if err := s.users.AddXP(referrerID, domain.ReferralPaymentXP); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("referral payment for unknown referrer",
				zap.Int64("referrer_id", referrerID))
			return ReferralAward{Reason: ReferralRefusedNotFound}
		}
		s.logger.Error("referral payment XP award failed",
			zap.Int64("referrer_id", referrerID), zap.Error(err))
		return ReferralAward{Reason: ReferralRefusedInternal}
	}

	if s.badges != nil {
		s.badges.Refresh(referrerID)
	}

	s.logger.Info("referral payment credited",
		zap.Int64("referrer_id", referrerID),
		zap.Int("xp", domain.ReferralPaymentXP),
	)
	return ReferralAward{Success: true, ReferrerID: referrerID, XPAwarded: domain.ReferralPaymentXP, Multiplier: 1.0}
}

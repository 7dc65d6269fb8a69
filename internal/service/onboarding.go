package service

import (
	"errors"
	"math/rand"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

const promoCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const promoCodeLength = 6

// Promo code rejection reasons.
const (
	PromoNotFound     = "not_found"
	PromoOwnCode      = "own_code"
	PromoAlreadyUsed  = "already_used"
	PromoOwnerNotPaid = "owner_not_paid"
)

// PromoCheck is the outcome of validating a promo code.
type PromoCheck struct {
	Valid  bool
	Reason string
	Owner  *domain.User
}

// OnboardingService creates user snapshots and handles the promo-code and
// registration-bonus parts of the onboarding flow.
type OnboardingService struct {
	users     repository.UserRepository
	promos    repository.PromoRepository
	referrals *ReferralService
	logger    *zap.Logger
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(users repository.UserRepository, promos repository.PromoRepository, referrals *ReferralService, logger *zap.Logger) *OnboardingService {
	return &OnboardingService{users: users, promos: promos, referrals: referrals, logger: logger}
}

// GetOrCreate loads the snapshot, creating a zeroed one with a fresh
// promo code on first contact.
func (s *OnboardingService) GetOrCreate(userID int64, username string) (*domain.User, error) {
	u, err := s.users.GetByID(userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	u = domain.NewUser(userID, username, generatePromoCode())
	if err := s.users.Create(u); err != nil {
		return nil, err
	}
	s.logger.Info("user created",
		zap.Int64("user_id", userID), zap.String("promo_code", u.PromoCode))

	// Re-read in case a concurrent /start won the insert.
	return s.users.GetByID(userID)
}

// Save persists the onboarding-flow fields of the snapshot.
func (s *OnboardingService) Save(u *domain.User) error {
	return s.users.SaveOnboarding(u)
}

// CheckPromoCode validates a promo code for the given redeemer.
func (s *OnboardingService) CheckPromoCode(code string, userID int64) (PromoCheck, error) {
	owner, err := s.users.GetByPromoCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PromoCheck{Reason: PromoNotFound}, nil
		}
		return PromoCheck{}, err
	}
	if owner.UserID == userID {
		return PromoCheck{Reason: PromoOwnCode}, nil
	}

	used, err := s.promos.IsUsed(code)
	if err != nil {
		return PromoCheck{}, err
	}
	if used {
		return PromoCheck{Reason: PromoAlreadyUsed}, nil
	}
	if owner.PaymentStatus != domain.PaymentPaid {
		return PromoCheck{Reason: PromoOwnerNotPaid}, nil
	}
	return PromoCheck{Valid: true, Owner: owner}, nil
}

// RedeemPromoCode binds the redeemer to the code owner and marks the code
// used. The registration bonus itself fires later, via
// GrantRegistrationBonus, once onboarding reaches the payment screen.
func (s *OnboardingService) RedeemPromoCode(u *domain.User, owner *domain.User) error {
	u.ReferredBy = owner.PromoCode
	u.UsedPromoCode = owner.PromoCode
	u.HasDiscount = true
	if err := s.users.SaveOnboarding(u); err != nil {
		return err
	}
	if err := s.promos.MarkUsed(owner.PromoCode, u.UserID); err != nil {
		return err
	}
	s.logger.Info("promo code redeemed",
		zap.String("promo_code", owner.PromoCode), zap.Int64("used_by", u.UserID))
	return nil
}

// GrantRegistrationBonus fires the referral registration event exactly
// once per referred user and gives the referred user their own flat
// bonus. Latched by ReferralBonusGiven.
func (s *OnboardingService) GrantRegistrationBonus(u *domain.User) ReferralAward {
	if u.ReferredBy == "" || u.ReferralBonusGiven {
		return ReferralAward{}
	}

	owner, err := s.users.GetByPromoCode(u.ReferredBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("registration bonus for unknown promo code",
				zap.Int64("user_id", u.UserID), zap.String("promo_code", u.ReferredBy))
			return ReferralAward{Reason: ReferralRefusedNotFound}
		}
		s.logger.Error("registration bonus referrer lookup failed",
			zap.Int64("user_id", u.UserID), zap.Error(err))
		return ReferralAward{Reason: ReferralRefusedInternal}
	}

	award := s.referrals.OnReferredUserRegistered(owner.UserID)
	if !award.Success {
		return award
	}

	if err := s.users.AddXP(u.UserID, domain.ReferralBaseXP); err != nil {
		s.logger.Error("referred user bonus failed",
			zap.Int64("user_id", u.UserID), zap.Error(err))
	}

	u.ReferralBonusGiven = true
	if err := s.users.SaveOnboarding(u); err != nil {
		s.logger.Error("registration bonus latch failed",
			zap.Int64("user_id", u.UserID), zap.Error(err))
	}
	return award
}

func generatePromoCode() string {
	code := make([]byte, promoCodeLength)
	for i := range code {
		code[i] = promoCodeAlphabet[rand.Intn(len(promoCodeAlphabet))]
	}
	return string(code)
}

package service

import (
	"imantap/internal/repository"

	"go.uber.org/zap"
)

// Badge identifiers. The set only ever grows per user.
const (
	BadgeSocialButterfly = "social_butterfly" // 10+ referral registrations
	BadgeFriendsLeader   = "friends_leader"   // XP beats every invited friend
	BadgeLegend          = "legend"           // 10000+ XP
)

const legendXPThreshold = 10000

// BadgeService recomputes badge unlocks after XP or referral mutations.
// It is best-effort: a failed refresh is logged, never surfaced to the
// mutation that triggered it.
type BadgeService struct {
	users  repository.UserRepository
	boards repository.LeaderboardRepository
	logger *zap.Logger
}

// NewBadgeService creates a new badge service
func NewBadgeService(users repository.UserRepository, boards repository.LeaderboardRepository, logger *zap.Logger) *BadgeService {
	return &BadgeService{users: users, boards: boards, logger: logger}
}

// Refresh re-evaluates badge conditions and persists only newly unlocked
// badges.
func (s *BadgeService) Refresh(userID int64) []string {
	u, err := s.users.GetByID(userID)
	if err != nil {
		s.logger.Warn("badge refresh: user load failed",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	badges := append([]string{}, u.UnlockedBadges...)

	if u.InvitedCount >= 10 && !u.HasBadge(BadgeSocialButterfly) {
		badges = append(badges, BadgeSocialButterfly)
	}
	if u.XP >= legendXPThreshold && !u.HasBadge(BadgeLegend) {
		badges = append(badges, BadgeLegend)
	}
	if !u.HasBadge(BadgeFriendsLeader) {
		// The friends board ranks only the invited users, so the owner
		// leads when their own XP matches or beats the top friend.
		friends, err := s.boards.Friends(u.PromoCode, 1)
		if err != nil {
			s.logger.Warn("badge refresh: friends leaderboard failed",
				zap.Int64("user_id", userID), zap.Error(err))
		} else if len(friends) > 0 && u.XP >= friends[0].XP {
			badges = append(badges, BadgeFriendsLeader)
		}
	}

	if len(badges) == len(u.UnlockedBadges) {
		return nil
	}

	if err := s.users.SetBadges(userID, badges); err != nil {
		s.logger.Warn("badge refresh: save failed",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}

	unlocked := badges[len(u.UnlockedBadges):]
	s.logger.Info("badges unlocked",
		zap.Int64("user_id", userID), zap.Strings("badges", unlocked))
	return unlocked
}

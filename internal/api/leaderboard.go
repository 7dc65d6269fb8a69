package api

import (
	"errors"

	"imantap/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleGlobalLeaderboard returns the paginated global XP ranking.
func (s *Server) handleGlobalLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 200 || offset < 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid pagination")
	}

	entries, total, err := s.boards.Global(limit, offset)
	if err != nil {
		s.logger.Error("global leaderboard failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"total":   total,
		"hasMore": offset+len(entries) < total,
	})
}

// handleFriendsLeaderboard ranks the users invited by the given user.
func (s *Server) handleFriendsLeaderboard(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid limit")
	}

	u, err := s.users.GetByID(int64(userID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "user not found")
		}
		s.logger.Error("friends leaderboard failed", zap.Int("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}

	entries, err := s.boards.Friends(u.PromoCode, limit)
	if err != nil {
		s.logger.Error("friends leaderboard failed", zap.Int("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entries,
		"total":   len(entries),
		"hasMore": false,
	})
}

// handleRank returns the user's position in the global ranking.
func (s *Server) handleRank(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}

	rank, total, err := s.boards.Rank(int64(userID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "user not found")
		}
		s.logger.Error("rank failed", zap.Int("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"rank":       rank,
		"totalUsers": total,
	})
}

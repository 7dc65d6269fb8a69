package api

import (
	"errors"

	"imantap/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleFullProfile returns the read-only snapshot projection.
func (s *Server) handleFullProfile(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}

	profile, err := s.progress.Profile(int64(userID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "user not found")
		}
		s.logger.Error("profile read failed", zap.Int("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(fiber.Map{"success": true, "data": profile})
}

// handleCheckAccess resolves access from a query parameter; the mini-app
// frontend calls this before anything else.
func (s *Server) handleCheckAccess(c *fiber.Ctx) error {
	userID := c.QueryInt("userId")
	if userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "userId required")
	}
	return s.respondAccess(c, int64(userID))
}

// handleUserAccess is the path-parameter variant of the access check.
func (s *Server) handleUserAccess(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}
	return s.respondAccess(c, int64(userID))
}

func (s *Server) respondAccess(c *fiber.Ctx, userID int64) error {
	info, err := s.access.Check(userID)
	if err != nil {
		s.logger.Error("access check failed", zap.Int64("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "internal error")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"hasAccess":     info.HasAccess,
		"paymentStatus": info.PaymentStatus,
		"demoExpires":   info.DemoExpires,
		"reason":        info.Reason,
	})
}

package api

import (
	"encoding/json"
	"errors"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// syncResponse is the sync endpoint payload consumed by the mini-app for
// immediate UI feedback.
type syncResponse struct {
	Success          bool               `json:"success"`
	XPAdded          int                `json:"xpAdded"`
	StreakMultiplier float64            `json:"streakMultiplier"`
	CurrentStreak    int                `json:"currentStreak"`
	NewTasks         []string           `json:"newTasks,omitempty"`
	Data             domain.FullProfile `json:"data"`
}

// handleSync accepts a partial progress payload and reconciles it against
// the stored snapshot. Malformed JSON rejects the whole call with nothing
// persisted.
func (s *Server) handleSync(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}

	var upd domain.ProgressUpdate
	if err := json.Unmarshal(c.Body(), &upd); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}

	res, err := s.progress.Sync(int64(userID), &upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "user not found")
		}
		s.logger.Error("sync failed", zap.Int("user_id", userID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "failed to update progress")
	}

	multiplier := 1.0
	if res.XPAdded > 0 {
		multiplier = res.Multiplier
	}

	return c.JSON(syncResponse{
		Success:          true,
		XPAdded:          res.XPAdded,
		StreakMultiplier: multiplier,
		CurrentStreak:    res.CurrentStreak,
		NewTasks:         res.NewTasks,
		Data:             res.User.FullProfile(),
	})
}

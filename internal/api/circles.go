package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"imantap/internal/domain"
	"imantap/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// circleClientErrors are rule violations reported back to the caller
// verbatim with a 400.
var circleClientErrors = []error{
	service.ErrCircleExists,
	service.ErrCircleFull,
	service.ErrInvalidInviteCode,
	service.ErrNotCircleOwner,
	service.ErrNotCircleMember,
	service.ErrAlreadyCircleMember,
	service.ErrInviteNotFound,
	service.ErrOwnerCannotLeave,
	service.ErrCannotRemoveSelf,
}

func (s *Server) circleError(c *fiber.Ctx, op string, err error) error {
	if errors.Is(err, service.ErrCircleNotFound) || errors.Is(err, service.ErrUserNotFound) {
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	}
	for _, known := range circleClientErrors {
		if errors.Is(err, known) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error())
		}
	}
	s.logger.Error("circle "+op+" failed", zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, "internal error")
}

// notify delivers a Telegram message best-effort: a send failure never
// fails the API call that triggered it.
func (s *Server) notify(chatID int64, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendMessage(chatID, text); err != nil {
		s.logger.Warn("circle notification failed",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *Server) handleCreateCircle(c *fiber.Ctx) error {
	var req struct {
		UserID      int64  `json:"userId"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if req.UserID <= 0 || req.Name == "" {
		return errorResponse(c, fiber.StatusBadRequest, "userId and name required")
	}

	circle, err := s.circles.Create(req.UserID, req.Name, req.Description)
	if err != nil {
		return s.circleError(c, "create", err)
	}
	return c.JSON(fiber.Map{"success": true, "circle": circle})
}

func (s *Server) handleUserCircles(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "invalid userId")
	}

	circles, err := s.circles.UserCircles(int64(userID))
	if err != nil {
		return s.circleError(c, "list", err)
	}
	if circles == nil {
		circles = []domain.Circle{}
	}
	return c.JSON(fiber.Map{"success": true, "data": circles})
}

func (s *Server) handleCircleDetails(c *fiber.Ctx) error {
	circleID := c.Params("id")
	userID := c.QueryInt("userId")
	if userID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "userId required")
	}

	details, err := s.circles.Details(circleID, int64(userID))
	if err != nil {
		return s.circleError(c, "details", err)
	}
	return c.JSON(fiber.Map{"success": true, "data": details})
}

func (s *Server) handleCircleInvite(c *fiber.Ctx) error {
	var req struct {
		CircleID       string `json:"circleId"`
		InviterID      int64  `json:"inviterId"`
		TargetUsername string `json:"targetUsername"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if req.CircleID == "" || req.InviterID <= 0 || req.TargetUsername == "" {
		return errorResponse(c, fiber.StatusBadRequest, "circleId, inviterId and targetUsername required")
	}

	res, err := s.circles.Invite(req.CircleID, req.InviterID, req.TargetUsername)
	if err != nil {
		return s.circleError(c, "invite", err)
	}

	text := fmt.Sprintf("👋 %s сізді топқа шақырды!\n\n🤝 %s\n", res.InviterUsername, res.CircleName)
	if res.CircleDescription != "" {
		text += fmt.Sprintf("📝 %s\n", res.CircleDescription)
	}
	text += fmt.Sprintf("👥 %d адам\n\nШақыруды қабылдау үшін ImanTap ашыңыз", res.MemberCount)
	s.notify(res.TargetUserID, text)

	return c.JSON(fiber.Map{
		"success":      true,
		"targetUserId": res.TargetUserID,
		"circleName":   res.CircleName,
		"memberCount":  res.MemberCount,
	})
}

func (s *Server) handleCircleAccept(c *fiber.Ctx) error {
	req, ok := parseCircleMemberRequest(c)
	if !ok {
		return nil
	}

	circle, err := s.circles.Accept(req.CircleID, req.UserID)
	if err != nil {
		return s.circleError(c, "accept", err)
	}

	if m, found := circle.FindMember(req.UserID); found {
		s.notify(circle.OwnerID, fmt.Sprintf(
			"✅ Шақыру қабылданды!\n\n👤 %s \"%s\" тобына қосылды\n\n👥 Қазір қатысушылар: %d",
			m.Name, circle.Name, circle.ActiveMemberCount()))
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleCircleDecline(c *fiber.Ctx) error {
	req, ok := parseCircleMemberRequest(c)
	if !ok {
		return nil
	}

	if err := s.circles.Decline(req.CircleID, req.UserID); err != nil {
		return s.circleError(c, "decline", err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Invitation declined"})
}

func (s *Server) handleCircleJoin(c *fiber.Ctx) error {
	var req struct {
		InviteCode string `json:"inviteCode"`
		UserID     int64  `json:"userId"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if req.InviteCode == "" || req.UserID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "inviteCode and userId required")
	}

	circle, err := s.circles.JoinByCode(req.InviteCode, req.UserID)
	if err != nil {
		return s.circleError(c, "join", err)
	}

	if m, found := circle.FindMember(req.UserID); found {
		s.notify(circle.OwnerID, fmt.Sprintf(
			"🎉 Топқа жаңа адам қосылды!\n\n👤 %s \"%s\" тобына қосылды\n\n👥 Қазір қатысушылар: %d",
			m.Name, circle.Name, circle.ActiveMemberCount()))
	}
	return c.JSON(fiber.Map{"success": true, "circle": circle})
}

func (s *Server) handleCircleLeave(c *fiber.Ctx) error {
	req, ok := parseCircleMemberRequest(c)
	if !ok {
		return nil
	}

	circle, err := s.circles.Leave(req.CircleID, req.UserID)
	if err != nil {
		return s.circleError(c, "leave", err)
	}

	if m, found := circle.FindMember(req.UserID); found {
		s.notify(circle.OwnerID, fmt.Sprintf(
			"🚪 Қатысушы топтан шықты\n\n👤 %s \"%s\" тобынан шықты\n\n👥 Қалған қатысушылар: %d",
			m.Name, circle.Name, circle.ActiveMemberCount()))
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleCircleRemoveMember(c *fiber.Ctx) error {
	var req struct {
		CircleID     string `json:"circleId"`
		OwnerID      int64  `json:"ownerId"`
		TargetUserID int64  `json:"targetUserId"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if req.CircleID == "" || req.OwnerID <= 0 || req.TargetUserID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "circleId, ownerId and targetUserId required")
	}

	circle, err := s.circles.RemoveMember(req.CircleID, req.OwnerID, req.TargetUserID)
	if err != nil {
		return s.circleError(c, "remove member", err)
	}

	s.notify(req.TargetUserID, fmt.Sprintf(
		"❌ Сіз топтан шығарылдыңыз\n\nИесі сізді \"%s\" тобынан шығарды", circle.Name))
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleCircleDelete(c *fiber.Ctx) error {
	var req struct {
		CircleID string `json:"circleId"`
		OwnerID  int64  `json:"ownerId"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if req.CircleID == "" || req.OwnerID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "circleId and ownerId required")
	}

	if err := s.circles.Delete(req.CircleID, req.OwnerID); err != nil {
		return s.circleError(c, "delete", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// circleMemberRequest is the shared body of the accept, decline and
// leave endpoints.
type circleMemberRequest struct {
	CircleID string `json:"circleId"`
	UserID   int64  `json:"userId"`
}

// parseCircleMemberRequest writes the error response itself; ok=false
// means the handler is done.
func parseCircleMemberRequest(c *fiber.Ctx) (circleMemberRequest, bool) {
	var req circleMemberRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		_ = errorResponse(c, fiber.StatusBadRequest, "invalid JSON")
		return req, false
	}
	if req.CircleID == "" || req.UserID <= 0 {
		_ = errorResponse(c, fiber.StatusBadRequest, "circleId and userId required")
		return req, false
	}
	return req, true
}

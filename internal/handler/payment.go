package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"imantap/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handlePhoto accepts a payment receipt photo.
func (h *Handler) handlePhoto(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for photo", zap.Error(err))
		return c.Send(errTryAgain)
	}
	if u.OnboardingStep != domain.StepWaitingReceipt {
		return c.Send("Бастау үшін /start деп жазыңыз.")
	}

	return h.submitReceipt(c, u, c.Message().Photo.FileID, true)
}

// handleDocument accepts a PDF or image receipt.
func (h *Handler) handleDocument(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for document", zap.Error(err))
		return c.Send(errTryAgain)
	}
	if u.OnboardingStep != domain.StepWaitingReceipt {
		return c.Send("Бастау үшін /start деп жазыңыз.")
	}

	doc := c.Message().Document
	if !strings.HasPrefix(doc.MIME, "image/") && doc.MIME != "application/pdf" {
		return c.Send("❌ Фото немесе PDF құжат жіберіңіз.")
	}

	return h.submitReceipt(c, u, doc.FileID, false)
}

// submitReceipt queues the receipt for review and fans out to managers.
func (h *Handler) submitReceipt(c tele.Context, u *domain.User, fileID string, isPhoto bool) error {
	if err := h.payments.SubmitReceipt(u.UserID, fileID); err != nil {
		h.logger.Error("Failed to submit receipt",
			zap.Int64("user_id", u.UserID), zap.Error(err))
		return c.Send("❌ Қате пайда болды. Қайтадан жіберіңіз.")
	}

	if err := c.Send(
		"✅ *Чек қабылданды!*\n\nТөлеміңіз тексеруге жіберілді.\nӘдетте бұл 30 минутқа дейін созылады.\n\nҚолжетімділік ашылған кезде хабарлаймыз! 🎉",
		&tele.ReplyMarkup{RemoveKeyboard: true},
		tele.ModeMarkdown,
	); err != nil {
		return err
	}

	h.notifyManagersNewPayment(u, fileID, isPhoto)
	return nil
}

// notifyManagersNewPayment sends the receipt with approve/reject buttons
// to every payment manager. Delivery failures are logged per manager.
func (h *Handler) notifyManagersNewPayment(u *domain.User, fileID string, isPhoto bool) {
	managers, err := h.admins.List()
	if err != nil {
		h.logger.Error("Failed to list managers", zap.Error(err))
	}
	managers = append(managers, h.cfg.MainAdminID)

	discount := fmt.Sprintf("<b>%d₸</b>", u.PaidAmount)
	if u.HasDiscount {
		discount = fmt.Sprintf("<s>%d₸</s> → <b>%d₸</b> ✅ Жеңілдік!", h.cfg.FullPrice, u.PaidAmount)
	}

	caption := fmt.Sprintf(
		"🔔 <b>Жаңа төлем тексеруде!</b>\n\n👤 User ID: <code>%d</code>\n📱 Username: %s\n📞 Телефон: %s\n💰 Сома: %s\n🎟️ Промокод: %s\n📅 %s",
		u.UserID,
		orDash(u.Username),
		orDash(u.PhoneNumber),
		discount,
		orDash(u.UsedPromoCode),
		time.Now().Format("2006-01-02 15:04"),
	)

	markup := &tele.ReplyMarkup{}
	userData := strconv.FormatInt(u.UserID, 10)
	markup.Inline(markup.Row(
		markup.Data(btnApprove.Text, btnApprove.Unique, userData),
		markup.Data(btnReject.Text, btnReject.Unique, userData),
	))

	var receipt interface{}
	if isPhoto {
		receipt = &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	} else {
		receipt = &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	}

	seen := make(map[int64]bool)
	for _, managerID := range managers {
		if seen[managerID] {
			continue
		}
		seen[managerID] = true

		if _, err := h.bot.Send(&tele.User{ID: managerID}, receipt, markup, tele.ModeHTML); err != nil {
			h.logger.Warn("Failed to notify manager",
				zap.Int64("manager_id", managerID), zap.Error(err))
		}
	}
}

// handleApprovePayment grants access after a manager confirms the receipt.
func (h *Handler) handleApprovePayment(c tele.Context) error {
	if !h.isManager(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Рұқсат жоқ", ShowAlert: true})
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Қате деректер"})
	}

	u, award, err := h.payments.Approve(targetID)
	if err != nil {
		h.logger.Error("Failed to approve payment",
			zap.Int64("user_id", targetID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Растау қатесі", ShowAlert: true})
	}

	h.logger.Info("Payment approved",
		zap.Int64("user_id", targetID),
		zap.Int64("approved_by", c.Sender().ID),
	)

	// Tell the user their access is open.
	if _, err := h.bot.Send(
		&tele.User{ID: targetID},
		"🎉 *Төлем расталды!*\n\nImanTap Premium-ға қош келдіңіз!\n\nТрекерді ашу үшін төмендегі батырманы басыңыз:",
		h.mainMenuMarkup(targetID),
		tele.ModeMarkdown,
	); err != nil {
		h.logger.Warn("Failed to notify approved user",
			zap.Int64("user_id", targetID), zap.Error(err))
	}

	// Tell the inviter about their payment bonus.
	if award.Success {
		if _, err := h.bot.Send(
			&tele.User{ID: award.ReferrerID},
			fmt.Sprintf("💎 *Рефералыңыз төлем жасады!*\n\n🎯 Сіз алдыңыз: +%d XP", award.XPAwarded),
			tele.ModeMarkdown,
		); err != nil {
			h.logger.Warn("Failed to notify referrer about payment",
				zap.Int64("referrer_id", award.ReferrerID), zap.Error(err))
		}
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Расталды"}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("✅ Төлем расталды: %d (@%s)", targetID, orDash(u.Username)))
}

// handleRejectPayment declines the receipt and grants consolation demo
// access.
func (h *Handler) handleRejectPayment(c tele.Context) error {
	if !h.isManager(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Рұқсат жоқ", ShowAlert: true})
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Қате деректер"})
	}

	expiresAt, err := h.payments.Reject(targetID)
	if err != nil {
		h.logger.Error("Failed to reject payment",
			zap.Int64("user_id", targetID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "❌ Қабылдамау қатесі", ShowAlert: true})
	}

	h.logger.Info("Payment rejected",
		zap.Int64("user_id", targetID),
		zap.Int64("rejected_by", c.Sender().ID),
	)

	if _, err := h.bot.Send(
		&tele.User{ID: targetID},
		fmt.Sprintf("❌ *Төлем расталмады*\n\nЧекті тексеру мүмкін болмады.\n\n🎁 Сізге %s дейін демо-қолжетімділік берілді.\nТөлемді қайта жасап, чекті жіберіңіз.", expiresAt.Format("02.01 15:04")),
		h.demoMenuMarkup(targetID),
		tele.ModeMarkdown,
	); err != nil {
		h.logger.Warn("Failed to notify rejected user",
			zap.Int64("user_id", targetID), zap.Error(err))
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "❌ Қабылданбады"}); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("❌ Төлем қабылданбады: %d", targetID))
}

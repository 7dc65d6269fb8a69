package handler

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleMyCode shows the user's promo code and referral link.
func (h *Handler) handleMyCode(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for /mycode", zap.Error(err))
		return c.Send(errTryAgain)
	}

	return c.Send(
		fmt.Sprintf(
			"🎁 *Сіздің промокодыңыз:* `%s`\n\n🔗 Реферал сілтемеңіз:\n%s\n\nДосыңыз осы сілтеме арқылы тіркелсе:\n• Досыңызға -500₸ жеңілдік\n• Сізге +100 XP (белсенділікке қарай көбірек)\n• Досыңыз төлем жасаса тағы +400 XP\n\n👥 Шақырылғандар: %d",
			u.PromoCode, h.referralLink(u.PromoCode), u.InvitedCount,
		),
		tele.ModeMarkdown,
	)
}

// handleStats shows the user's XP, streak and leaderboard position.
func (h *Handler) handleStats(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for /stats", zap.Error(err))
		return c.Send(errTryAgain)
	}

	rankLine := ""
	if rank, total, err := h.boards.Rank(sender.ID); err == nil && total > 0 {
		rankLine = fmt.Sprintf("🏆 Орын: %d / %d\n", rank, total)
	}

	return c.Send(
		fmt.Sprintf(
			"📊 *Статистика:*\n\n⭐ XP: %d\n🔥 Қазіргі серия: %d күн\n🏅 Ең ұзақ серия: %d күн\n%s🎁 Промокод: `%s`\n👥 Шақырылғандар: %d\n📅 Тіркелген күн: %s",
			u.XP, u.CurrentStreak, u.LongestStreak, rankLine,
			u.PromoCode, u.InvitedCount, u.CreatedAt.Format("02.01.2006"),
		),
		tele.ModeMarkdown,
	)
}

// handlePending re-sends every receipt awaiting review to the requesting
// manager.
func (h *Handler) handlePending(c tele.Context) error {
	if !h.isManager(c.Sender().ID) {
		return nil
	}

	pending, err := h.payments.Pending()
	if err != nil {
		h.logger.Error("Failed to list pending payments", zap.Error(err))
		return c.Send("❌ Қате орын алды.")
	}

	if len(pending) == 0 {
		return c.Send("✅ Тексеруді күтіп тұрған төлемдер жоқ.")
	}

	if err := c.Send(fmt.Sprintf("⏳ Тексеруде: %d төлем", len(pending))); err != nil {
		return err
	}

	for _, u := range pending {
		caption := fmt.Sprintf(
			"👤 User ID: <code>%d</code>\n📱 Username: %s\n💰 Сома: <b>%d₸</b>",
			u.UserID, orDash(u.Username), u.PaidAmount,
		)

		markup := &tele.ReplyMarkup{}
		userData := strconv.FormatInt(u.UserID, 10)
		markup.Inline(markup.Row(
			markup.Data(btnApprove.Text, btnApprove.Unique, userData),
			markup.Data(btnReject.Text, btnReject.Unique, userData),
		))

		if u.ReceiptFileID != "" {
			receipt := &tele.Photo{File: tele.File{FileID: u.ReceiptFileID}, Caption: caption}
			if err := c.Send(receipt, markup, tele.ModeHTML); err == nil {
				continue
			}
			// The file id may belong to a document, retry as plain text.
		}
		if err := c.Send(caption, markup, tele.ModeHTML); err != nil {
			h.logger.Warn("Failed to send pending payment",
				zap.Int64("user_id", u.UserID), zap.Error(err))
		}
	}
	return nil
}

// handleAddManager registers a new payment manager. Main admin only.
func (h *Handler) handleAddManager(c tele.Context) error {
	if c.Sender().ID != h.cfg.MainAdminID {
		return nil
	}

	arg := strings.TrimSpace(c.Message().Payload)
	managerID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || managerID == 0 {
		return c.Send("Қолдану: `/addmanager ID`\n\nМысал: `/addmanager 123456789`", tele.ModeMarkdown)
	}

	if err := h.admins.Add(managerID, c.Sender().ID, ""); err != nil {
		h.logger.Error("Failed to add manager",
			zap.Int64("manager_id", managerID), zap.Error(err))
		return c.Send("❌ Қате орын алды.")
	}

	h.logger.Info("Manager added",
		zap.Int64("manager_id", managerID), zap.Int64("added_by", c.Sender().ID))

	// Let the new manager know, delivery is best effort.
	if _, err := h.bot.Send(
		&tele.User{ID: managerID},
		"👨‍💼 Сіз ImanTap төлем менеджері болдыңыз.\n\n/pending - тексерудегі төлемдер тізімі",
	); err != nil {
		h.logger.Warn("Failed to notify new manager",
			zap.Int64("manager_id", managerID), zap.Error(err))
	}

	return c.Send(fmt.Sprintf("✅ Менеджер қосылды: %d", managerID))
}

// handleRemoveManager revokes a manager. Main admin only.
func (h *Handler) handleRemoveManager(c tele.Context) error {
	if c.Sender().ID != h.cfg.MainAdminID {
		return nil
	}

	arg := strings.TrimSpace(c.Message().Payload)
	managerID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || managerID == 0 {
		return c.Send("Қолдану: `/removemanager ID`\n\nМысал: `/removemanager 123456789`", tele.ModeMarkdown)
	}

	if err := h.admins.Remove(managerID); err != nil {
		h.logger.Error("Failed to remove manager",
			zap.Int64("manager_id", managerID), zap.Error(err))
		return c.Send("❌ Қате орын алды.")
	}

	h.logger.Info("Manager removed",
		zap.Int64("manager_id", managerID), zap.Int64("removed_by", c.Sender().ID))
	return c.Send(fmt.Sprintf("✅ Менеджер өшірілді: %d", managerID))
}

// handleManagers lists all payment managers. Main admin only.
func (h *Handler) handleManagers(c tele.Context) error {
	if c.Sender().ID != h.cfg.MainAdminID {
		return nil
	}

	managers, err := h.admins.List()
	if err != nil {
		h.logger.Error("Failed to list managers", zap.Error(err))
		return c.Send("❌ Қате орын алды.")
	}

	if len(managers) == 0 {
		return c.Send("👥 Менеджерлер әлі жоқ.\n\n`/addmanager ID` арқылы қосыңыз.", tele.ModeMarkdown)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 *Менеджерлер тізімі: %d*\n\n", len(managers))
	for i, id := range managers {
		fmt.Fprintf(&b, "%d. `%d`\n", i+1, id)
	}
	return c.Send(b.String(), tele.ModeMarkdown)
}

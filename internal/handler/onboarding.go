package handler

import (
	"fmt"
	"strings"
	"time"

	"imantap/internal/domain"
	"imantap/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const errTryAgain = "❌ Қате орын алды. Қайталап көріңіз."

// handleStart handles /start, including ref_ deep links and the payment
// shortcut parameter sent by the mini-app.
func (h *Handler) handleStart(c tele.Context) error {
	sender := c.Sender()
	userID := sender.ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", sender.Username),
	)

	u, err := h.onboarding.GetOrCreate(userID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to get or create user", zap.Error(err))
		return c.Send(errTryAgain)
	}

	// The main admin skips onboarding and payment entirely.
	if userID == h.cfg.MainAdminID {
		if u.PaymentStatus != domain.PaymentPaid {
			if _, _, err := h.payments.Approve(userID); err != nil {
				h.logger.Error("Failed to auto-approve admin", zap.Error(err))
				return c.Send(errTryAgain)
			}
		}
		return c.Send(
			fmt.Sprintf("Ассаляму Алейкум, %s! 👑\n\nСіз ImanTap әкімшісісіз.\n\nТрекерді ашу үшін төмендегі батырманы басыңыз:", sender.FirstName),
			h.mainMenuMarkup(userID),
		)
	}

	// Active demo users get the trial keyboard with an upgrade button.
	if u.AccessType == domain.AccessDemo && u.DemoExpiresAt != nil && u.DemoExpiresAt.After(time.Now()) {
		hoursLeft := int(time.Until(*u.DemoExpiresAt).Hours())
		return c.Send(
			fmt.Sprintf("Сәлем, %s! 👋\n\n🎁 *Demo-режим қосулы* (%d сағат қалды)\n\nТолық нұсқаға өту үшін төлем жасаңыз 👇", sender.FirstName, hoursLeft),
			h.demoMenuMarkup(userID),
			tele.ModeMarkdown,
		)
	}

	if u.OnboardingCompleted && u.PaymentStatus == domain.PaymentPaid {
		return c.Send(
			fmt.Sprintf("Ассаляму Алейкум, %s! 🤲\n\nImanTap-қа қайта қош келдіңіз!\n\nТрекерді ашу үшін төмендегі батырманы басыңыз:", sender.FirstName),
			h.mainMenuMarkup(userID),
		)
	}

	payload := strings.TrimSpace(c.Message().Payload)

	// Referral deep link: bind the inviter before onboarding starts. The
	// registration bonus itself fires later, at the payment screen.
	if code, ok := strings.CutPrefix(payload, "ref_"); ok && u.ReferredBy == "" && u.UsedPromoCode == "" {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == u.PromoCode {
			return c.Send("⚠️ Өз промокодыңызды пайдалануға болмайды!")
		}
		check, err := h.onboarding.CheckPromoCode(code, userID)
		if err != nil {
			h.logger.Error("Failed to check referral code", zap.Error(err))
		} else if check.Valid {
			if err := h.onboarding.RedeemPromoCode(u, check.Owner); err != nil {
				h.logger.Error("Failed to redeem referral code", zap.Error(err))
			} else {
				if err := c.Send(
					"🎁 *Сізде реферал сілтемесі бар!*\n\nДосыңыз сізді шақырды.\nСіз -500₸ жеңілдік аласыз!\n\nБаптауды бастайық! 🚀",
					tele.ModeMarkdown,
				); err != nil {
					return err
				}
			}
		}
	}

	// Mini-app "buy" button lands here with the payment parameter.
	if payload == "payment" {
		if u.PaymentStatus == domain.PaymentPaid {
			return c.Send("✅ Сізде қазірдің өзінде Premium бар!\n\nMini App-ты ашыңыз:", h.mainMenuMarkup(userID))
		}
		return h.showPayment(c, u)
	}

	// Resume onboarding from the first missing piece.
	switch {
	case u.PhoneNumber == "":
		return h.startOnboarding(c, u)
	case u.Location.Latitude == 0 && u.Location.Longitude == 0:
		return h.requestLocation(c, u)
	case u.OnboardingStep == domain.StepWaitingPromo || u.OnboardingStep == domain.StepWaitingLocation:
		return h.requestPromoChoice(c, u)
	default:
		return h.showPayment(c, u)
	}
}

// startOnboarding greets the user and asks for their phone number.
func (h *Handler) startOnboarding(c tele.Context, u *domain.User) error {
	if err := c.Send(
		fmt.Sprintf("🌙 *Ассаляму Алейкум, %s!*\n\nImanTap-қа қош келдіңіз! Жақсы амалдарды жоспарлауға арналған жеке көмекшіңіз.\n\nБарлығын 30 секундта баптаймыз! 🚀", c.Sender().FirstName),
		tele.ModeMarkdown,
	); err != nil {
		return err
	}

	u.OnboardingStep = domain.StepWaitingPhone
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save onboarding step", zap.Error(err))
		return c.Send(errTryAgain)
	}

	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Contact(btnTextSendPhone)))
	return c.Send(
		"📱 *1/3-қадам: Телефон нөміріңіз*\n\nЖеке хабарламалар мен қолжетімділікті қалпына келтіру үшін қажет.",
		menu,
		tele.ModeMarkdown,
	)
}

// requestLocation asks for geolocation, used for prayer-time reminders.
func (h *Handler) requestLocation(c tele.Context, u *domain.User) error {
	u.OnboardingStep = domain.StepWaitingLocation
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save onboarding step", zap.Error(err))
		return c.Send(errTryAgain)
	}

	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Location(btnTextSendGeo)))
	return c.Send(
		"📍 *2/3-қадам: Нақты геолокация*\n\nНамаз уақыттарын дәл анықтау үшін геолокацияңызбен бөлісіңіз.\n\n⚠️ *Маңызды:* Дәл уақыттар үшін геолокация міндетті!",
		menu,
		tele.ModeMarkdown,
	)
}

// requestPromoChoice offers demo access, direct payment or a promo code.
// Referral-link users skip this screen: their discount is already bound.
func (h *Handler) requestPromoChoice(c tele.Context, u *domain.User) error {
	if u.ReferredBy != "" {
		return h.showPayment(c, u)
	}

	u.OnboardingStep = domain.StepWaitingPromo
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save onboarding step", zap.Error(err))
		return c.Send(errTryAgain)
	}

	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnTextDemo)),
		menu.Row(menu.Text(btnTextPay)),
		menu.Row(menu.Text(btnTextHavePromo)),
	)
	return c.Send(
		fmt.Sprintf("3️⃣ *3/3-қадам:*\n\nТаңдаңыз:\n\n🎁 *24 сағат тегін қолдану*\nБарлық мүмкіндіктерді тексеріңіз!\n\n💳 *Толық нұсқа - %d₸*\nПромокод бар болса - %d₸\n\nНемесе промокодты жіберіңіз:", h.cfg.FullPrice, h.cfg.DiscountPrice),
		menu,
		tele.ModeMarkdown,
	)
}

// showPayment sends the Kaspi payment screen. Reaching it completes
// registration, so the referral bonus fires here, exactly once.
func (h *Handler) showPayment(c tele.Context, u *domain.User) error {
	award := h.onboarding.GrantRegistrationBonus(u)
	if award.Success {
		h.notifyReferrer(award, u)
	}

	hasDiscount := u.HasDiscount || u.ReferredBy != "" || u.UsedPromoCode != ""
	price := h.cfg.FullPrice
	if hasDiscount {
		price = h.cfg.DiscountPrice
	}

	var header string
	switch {
	case u.ReferredBy != "":
		header = fmt.Sprintf("🎉 Сізді <b>%s</b> сілтемесі бойынша шақырды!\n\n✅ Сізге -500₸ жеңілдік берілді:\n<s>%d₸</s> → <b>%d₸</b> 🎁", u.ReferredBy, h.cfg.FullPrice, price)
	case u.UsedPromoCode != "":
		header = fmt.Sprintf("🎁 Промокод қолданылды: <b>%s</b>\n\n✅ Сізге -500₸ жеңілдік берілді:\n<s>%d₸</s> → <b>%d₸</b> 🎁", u.UsedPromoCode, h.cfg.FullPrice, price)
	default:
		header = fmt.Sprintf("💰 Бағасы: <b>%d₸</b>", price)
	}

	text := fmt.Sprintf(
		"💳 ImanTap Premium-ға қолжетімділік\n\n%s\n\n📋 Не қамтылған:\n✓ Рамазанның 30 күніне арналған трекер\n✓ Алланың 99 есімі\n✓ Мақсаттар прогресі\n✓ Құранды пара бойынша оқу кестесі\n✓ Турнир және XP жүйесі\n\nKaspi арқылы төлем жасап, чекті осында жіберіңіз.",
		header,
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL("💳 Kaspi арқылы төлем", h.cfg.KaspiLink)))

	u.PaidAmount = price
	u.HasDiscount = hasDiscount
	u.OnboardingStep = domain.StepWaitingReceipt
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save payment screen state", zap.Error(err))
		return c.Send(errTryAgain)
	}

	return c.Send(text, markup, tele.ModeHTML)
}

// notifyReferrer tells the inviter their referral registered.
func (h *Handler) notifyReferrer(award service.ReferralAward, u *domain.User) {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = "Жаңа қолданушы"
	}

	text := fmt.Sprintf(
		"🎉 *Жаңа реферал!*\n\n👤 *%s* сіздің промокодыңыз бойынша тіркелді!\n🎯 Сіз алдыңыз: +%d XP",
		name, award.XPAwarded,
	)
	if _, err := h.bot.Send(&tele.User{ID: award.ReferrerID}, text, tele.ModeMarkdown); err != nil {
		h.logger.Warn("Failed to notify referrer",
			zap.Int64("referrer_id", award.ReferrerID), zap.Error(err))
	}
}

// handleContact stores the shared phone number and moves on to location.
func (h *Handler) handleContact(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for contact", zap.Error(err))
		return c.Send(errTryAgain)
	}
	if u.OnboardingStep != domain.StepWaitingPhone {
		return nil
	}

	u.PhoneNumber = c.Message().Contact.PhoneNumber
	u.Name = strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save phone number", zap.Error(err))
		return c.Send(errTryAgain)
	}

	if err := c.Send("✅ Керемет!"); err != nil {
		return err
	}
	return h.requestLocation(c, u)
}

// handleLocation stores coordinates; during onboarding it continues to the
// promo step, after a settings change it just confirms.
func (h *Handler) handleLocation(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for location", zap.Error(err))
		return c.Send(errTryAgain)
	}
	if u.OnboardingStep != domain.StepWaitingLocation {
		return nil
	}

	loc := c.Message().Location
	u.Location.Latitude = float64(loc.Lat)
	u.Location.Longitude = float64(loc.Lng)
	if u.Location.Timezone == "" {
		u.Location.Timezone = h.cfg.Timezone
	}

	h.logger.Info("User shared location",
		zap.Int64("user_id", sender.ID),
		zap.Float64("lat", u.Location.Latitude),
		zap.Float64("lng", u.Location.Longitude),
	)

	if u.OnboardingCompleted {
		// Settings flow: city change only.
		u.OnboardingStep = domain.StepCompleted
		if err := h.onboarding.Save(u); err != nil {
			h.logger.Error("Failed to save location", zap.Error(err))
			return c.Send(errTryAgain)
		}
		return c.Send("✅ Геолокация жаңартылды!", h.mainMenuMarkup(sender.ID))
	}

	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save location", zap.Error(err))
		return c.Send(errTryAgain)
	}
	return h.requestPromoChoice(c, u)
}

// handleText drives the onboarding state machine and main-menu buttons.
func (h *Handler) handleText(c tele.Context) error {
	sender := c.Sender()
	text := strings.TrimSpace(c.Text())

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for text", zap.Error(err))
		return c.Send(errTryAgain)
	}

	// Main-menu buttons work regardless of onboarding state.
	switch text {
	case btnTextSettings:
		return h.showSettings(c, u)
	case btnTextStats:
		return h.handleStats(c)
	case btnTextMyCode:
		return h.handleMyCode(c)
	case btnTextBuyFull:
		if u.PaymentStatus == domain.PaymentPaid {
			return c.Send("✅ Сізде қазірдің өзінде Premium бар!", h.mainMenuMarkup(sender.ID))
		}
		return h.showPayment(c, u)
	}

	switch u.OnboardingStep {
	case domain.StepWaitingPhone:
		return c.Send("📱 Төмендегі батырма арқылы нөміріңізді жіберіңіз.")

	case domain.StepWaitingLocation:
		return c.Send("📍 Төмендегі батырма арқылы геолокацияңызды жіберіңіз.")

	case domain.StepWaitingPromo:
		return h.handlePromoStep(c, u, text)

	case domain.StepWaitingReceipt:
		return c.Send("📄 Төлем чегін фото немесе PDF түрінде жіберіңіз.")

	default:
		return c.Send("Бастау үшін /start деп жазыңыз.")
	}
}

// handlePromoStep handles the demo/pay/promo choice and raw promo codes.
func (h *Handler) handlePromoStep(c tele.Context, u *domain.User, text string) error {
	switch text {
	case btnTextDemo:
		if _, err := h.payments.ActivateDemo(u.UserID); err != nil {
			h.logger.Error("Failed to activate demo", zap.Error(err))
			return c.Send(errTryAgain)
		}
		return c.Send(
			"🎉 *Демо-режим қосылды!*\n\nСізде *24 сағат* тегін қолжетімділік бар.\n\nБарлық мүмкіндіктерді қолданып көріңіз! 🌙\n\nДемо аяқталғаннан кейін төлем жасауға болады.",
			h.demoMenuMarkup(u.UserID),
			tele.ModeMarkdown,
		)

	case btnTextPay:
		return h.showPayment(c, u)

	case btnTextHavePromo:
		menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
		menu.Reply(menu.Row(menu.Text(btnTextBack)))
		return c.Send("🎟️ Промокодты жіберіңіз:", menu)

	case btnTextBack:
		return h.requestPromoChoice(c, u)
	}

	// Anything else on this step is treated as a promo code.
	code := strings.ToUpper(text)

	if u.UsedPromoCode != "" || u.ReferredBy != "" {
		used := u.UsedPromoCode
		if used == "" {
			used = u.ReferredBy
		}
		return c.Send(
			fmt.Sprintf("❌ *Промокод қолдану мүмкін емес*\n\nСіз бұрын промокод қолдандыңыз: *%s*\n\nБір қолданушы тек бір промокод қолдана алады.", used),
			tele.ModeMarkdown,
		)
	}

	check, err := h.onboarding.CheckPromoCode(code, u.UserID)
	if err != nil {
		h.logger.Error("Failed to check promo code", zap.Error(err))
		return c.Send(errTryAgain)
	}

	if !check.Valid {
		var msg string
		switch check.Reason {
		case service.PromoNotFound:
			msg = "❌ Промокод табылмады."
		case service.PromoAlreadyUsed:
			msg = "❌ Бұл промокод қолданылған."
		case service.PromoOwnCode:
			msg = "❌ Өз промокодыңызды қолдануға болмайды."
		case service.PromoOwnerNotPaid:
			msg = "❌ Промокод иесі төлем жасамаған."
		default:
			msg = "❌ Промокод қате."
		}
		return c.Send(msg + "\n\nҚайталап көріңіз немесе артқа қайтыңыз.")
	}

	if err := h.onboarding.RedeemPromoCode(u, check.Owner); err != nil {
		h.logger.Error("Failed to redeem promo code", zap.Error(err))
		return c.Send(errTryAgain)
	}

	if err := c.Send(
		fmt.Sprintf("✅ Промокод қабылданды!\n\n🎉 Сізге -500₸ жеңілдік берілді:\n<s>%d₸</s> → <b>%d₸</b> 🎁", h.cfg.FullPrice, h.cfg.DiscountPrice),
		tele.ModeHTML,
	); err != nil {
		return err
	}
	return h.showPayment(c, u)
}

// showSettings displays the settings screen with inline toggles.
func (h *Handler) showSettings(c tele.Context, u *domain.User) error {
	notifState := "❌ Өшірулі"
	if u.NotificationSettings.RamadanReminders {
		notifState = "✅ Қосулы"
	}

	text := fmt.Sprintf(
		"⚙️ *Сіздің баптауларыңыз:*\n\n📍 *Қала:* %s\n🌍 *Ел:* %s\n\n🔔 *Хабарландырулар:* %s\n\nӨзгерту үшін төмендегі батырмаларды басыңыз:",
		orDash(u.Location.City), orDash(u.Location.Country), notifState,
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnChangeCity),
		markup.Row(btnToggleNotifications),
	)
	return c.Send(text, markup, tele.ModeMarkdown)
}

// handleChangeCity re-enters the location step from settings.
func (h *Handler) handleChangeCity(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for city change", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Қате орын алды"})
	}

	u.OnboardingStep = domain.StepWaitingLocation
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save city change step", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Қате орын алды"})
	}

	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Location(btnTextSendGeo)))
	if err := c.Send("📍 Жаңа геолокацияңызды жіберіңіз:", menu); err != nil {
		return err
	}
	return c.Respond()
}

// handleToggleNotifications flips prayer reminders on or off.
func (h *Handler) handleToggleNotifications(c tele.Context) error {
	sender := c.Sender()

	u, err := h.onboarding.GetOrCreate(sender.ID, sender.Username)
	if err != nil {
		h.logger.Error("Failed to load user for notification toggle", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Қате орын алды"})
	}

	u.NotificationSettings.RamadanReminders = !u.NotificationSettings.RamadanReminders
	if err := h.onboarding.Save(u); err != nil {
		h.logger.Error("Failed to save notification toggle", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Қате орын алды"})
	}

	if u.NotificationSettings.RamadanReminders {
		return c.Respond(&tele.CallbackResponse{Text: "🔔 Хабарландыру қосылды"})
	}
	return c.Respond(&tele.CallbackResponse{Text: "🔕 Хабарландыру өшірілді"})
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

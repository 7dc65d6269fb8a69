package handler

import (
	"fmt"

	"imantap/internal/config"
	"imantap/internal/repository"
	"imantap/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Reply-keyboard button texts. The onboarding state machine matches on
// these literally, so they must stay in sync with the keyboards below.
const (
	btnTextDemo      = "🎁 24 сағат тегін"
	btnTextPay       = "💳 Төлем жасау"
	btnTextHavePromo = "🎟️ Менде промокод бар"
	btnTextBack      = "❌ Артқа қайту"
	btnTextBuyFull   = "💳 Толық нұсқаны сатып алу"
	btnTextOpenApp   = "📱 ImanTap ашу"
	btnTextSettings  = "⚙️ Баптаулар"
	btnTextStats     = "📊 Статистика"
	btnTextMyCode    = "🎁 Менің промокодым"
	btnTextSendPhone = "📱 Нөмірді жіберу"
	btnTextSendGeo   = "📍 Геолокацияны жіберу"
)

// Inline keyboard buttons
var (
	btnApprove = tele.Btn{
		Unique: "approve_payment",
		Text:   "✅ Растау",
	}
	btnReject = tele.Btn{
		Unique: "reject_payment",
		Text:   "❌ Қабылдамау",
	}
	btnChangeCity = tele.Btn{
		Unique: "change_city",
		Text:   "📍 Қаланы өзгерту",
	}
	btnToggleNotifications = tele.Btn{
		Unique: "toggle_notifications",
		Text:   "🔔 Хабарландыру",
	}
)

// Handler manages all bot interactions
type Handler struct {
	bot        *tele.Bot
	onboarding *service.OnboardingService
	payments   *service.PaymentService
	admins     repository.AdminRepository
	boards     repository.LeaderboardRepository
	cfg        *config.Config
	logger     *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	onboarding *service.OnboardingService,
	payments *service.PaymentService,
	admins repository.AdminRepository,
	boards repository.LeaderboardRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:        bot,
		onboarding: onboarding,
		payments:   payments,
		admins:     admins,
		boards:     boards,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/mycode", h.handleMyCode)
	h.bot.Handle("/stats", h.handleStats)
	h.bot.Handle("/pending", h.handlePending)
	h.bot.Handle("/addmanager", h.handleAddManager)
	h.bot.Handle("/removemanager", h.handleRemoveManager)
	h.bot.Handle("/managers", h.handleManagers)

	// Onboarding flow inputs
	h.bot.Handle(tele.OnContact, h.handleContact)
	h.bot.Handle(tele.OnLocation, h.handleLocation)
	h.bot.Handle(tele.OnText, h.handleText)

	// Receipt uploads
	h.bot.Handle(tele.OnPhoto, h.handlePhoto)
	h.bot.Handle(tele.OnDocument, h.handleDocument)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnApprove, h.handleApprovePayment)
	h.bot.Handle(&btnReject, h.handleRejectPayment)
	h.bot.Handle(&btnChangeCity, h.handleChangeCity)
	h.bot.Handle(&btnToggleNotifications, h.handleToggleNotifications)
}

// isManager reports whether the sender may review payments.
func (h *Handler) isManager(userID int64) bool {
	if userID == h.cfg.MainAdminID {
		return true
	}
	ok, err := h.admins.IsAdmin(userID)
	if err != nil {
		h.logger.Error("Failed to check manager status",
			zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

// miniAppURL builds the mini-app link for a user.
func (h *Handler) miniAppURL(userID int64) string {
	return fmt.Sprintf("%s?tgWebAppStartParam=%d", h.cfg.MiniAppURL, userID)
}

// referralLink builds the t.me deep link carrying the user's promo code.
func (h *Handler) referralLink(promoCode string) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%s", h.cfg.BotUsername, promoCode)
}

// mainMenuMarkup returns the paid-user keyboard with the mini-app button.
func (h *Handler) mainMenuMarkup(userID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.WebApp(btnTextOpenApp, &tele.WebApp{URL: h.miniAppURL(userID)})),
		menu.Row(menu.Text(btnTextSettings), menu.Text(btnTextStats)),
		menu.Row(menu.Text(btnTextMyCode)),
	)
	return menu
}

// demoMenuMarkup returns the keyboard shown to demo users.
func (h *Handler) demoMenuMarkup(userID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.WebApp(btnTextOpenApp, &tele.WebApp{URL: h.miniAppURL(userID)})),
		menu.Row(menu.Text(btnTextBuyFull)),
	)
	return menu
}

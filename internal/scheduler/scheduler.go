// Package scheduler runs the periodic background jobs: demo-access expiry
// and prayer-time reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"imantap/internal/domain"
	"imantap/internal/prayertimes"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

// Sender is the minimal interface the scheduler needs to message users.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler polls the DB once a minute and dispatches due work.
type Scheduler struct {
	users    repository.UserRepository
	prayers  *prayertimes.Client
	sender   Sender
	loc      *time.Location
	logger   *zap.Logger
	interval time.Duration

	// timingsCache holds one day's timings per coordinate pair.
	timingsCache map[string]*prayertimes.Timings
	// sentReminders dedupes reminders within a day.
	sentReminders map[string]bool
	cacheDate     string
}

// New creates a scheduler with a one minute poll interval.
func New(users repository.UserRepository, prayers *prayertimes.Client, sender Sender, loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		users:         users,
		prayers:       prayers,
		sender:        sender,
		loc:           loc,
		logger:        logger,
		interval:      time.Minute,
		timingsCache:  make(map[string]*prayertimes.Timings),
		sentReminders: make(map[string]bool),
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.expireDemos()
			s.sendPrayerReminders()
		}
	}
}

// expireDemos revokes lapsed demo access and tells the user.
func (s *Scheduler) expireDemos() {
	expired, err := s.users.ListExpiredDemo(time.Now())
	if err != nil {
		s.logger.Error("list expired demos failed", zap.Error(err))
		return
	}

	for _, u := range expired {
		if err := s.users.ExpireDemoAccess(u.UserID); err != nil {
			s.logger.Error("expire demo failed",
				zap.Int64("user_id", u.UserID), zap.Error(err))
			continue
		}
		s.logger.Info("demo access expired", zap.Int64("user_id", u.UserID))

		text := "⏰ *Демо мерзімі аяқталды*\n\nImanTap-ты жалғастыру үшін толық нұсқаны сатып алыңыз.\n\n/start деп жазыңыз."
		if err := s.sender.SendMessage(u.UserID, text); err != nil {
			s.logger.Warn("demo expiry notice failed",
				zap.Int64("user_id", u.UserID), zap.Error(err))
		}
	}
}

// sendPrayerReminders messages users N minutes before fajr and maghrib.
func (s *Scheduler) sendPrayerReminders() {
	now := time.Now().In(s.loc)
	today := domain.FormatDate(now)

	// Both caches reset at midnight.
	if s.cacheDate != today {
		s.cacheDate = today
		s.timingsCache = make(map[string]*prayertimes.Timings)
		s.sentReminders = make(map[string]bool)
	}

	recipients, err := s.users.ListReminderRecipients()
	if err != nil {
		s.logger.Error("list reminder recipients failed", zap.Error(err))
		return
	}

	for _, u := range recipients {
		if u.Location.Latitude == 0 && u.Location.Longitude == 0 {
			continue
		}

		timings := s.timingsFor(u.Location.Latitude, u.Location.Longitude)
		if timings == nil {
			continue
		}

		minutesBefore := u.NotificationSettings.ReminderMinutesBefore
		for prayer, at := range map[string]string{"Таң (ауызбекітер)": timings.Fajr, "Ақшам (ауызашар)": timings.Maghrib} {
			s.maybeRemind(u.UserID, prayer, at, minutesBefore, now)
		}
	}
}

func (s *Scheduler) timingsFor(lat, lng float64) *prayertimes.Timings {
	key := fmt.Sprintf("%.2f:%.2f", lat, lng)
	if t, ok := s.timingsCache[key]; ok {
		return t
	}

	t, err := s.prayers.ByCoordinates(lat, lng)
	if err != nil {
		s.logger.Warn("prayer times fetch failed",
			zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		// Negative-cache so one bad location doesn't hammer the API.
		s.timingsCache[key] = nil
		return nil
	}
	s.timingsCache[key] = t
	return t
}

// maybeRemind sends the reminder if the current minute matches the
// prayer time minus the user's offset.
func (s *Scheduler) maybeRemind(userID int64, prayer, at string, minutesBefore int, now time.Time) {
	hour, minute, err := prayertimes.ReminderTime(at, minutesBefore)
	if err != nil {
		s.logger.Warn("bad prayer time", zap.String("time", at), zap.Error(err))
		return
	}
	if now.Hour() != hour || now.Minute() != minute {
		return
	}

	key := fmt.Sprintf("%d:%s:%s", userID, s.cacheDate, prayer)
	if s.sentReminders[key] {
		return
	}
	s.sentReminders[key] = true

	text := fmt.Sprintf("🕌 *%s намазына %d минут қалды*\n\nУақыты: %s", prayer, minutesBefore, at)
	if err := s.sender.SendMessage(userID, text); err != nil {
		s.logger.Warn("prayer reminder failed",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"imantap/internal/domain"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// jsonFields holds the marshalled JSONB columns of a user snapshot.
type jsonFields struct {
	location             []byte
	notificationSettings []byte
	dailyReferrals       []byte
	progress             []byte
	preparationProgress  []byte
	basicProgress        []byte
	memorizedNames       []byte
	earnedTasks          []byte
	unlockedBadges       []byte
	completedJuzs        []byte
	completedTasks       []byte
}

func newJSONFields(u *domain.User) (*jsonFields, error) {
	j := &jsonFields{}
	for _, f := range []struct {
		name string
		dst  *[]byte
		src  interface{}
	}{
		{"location", &j.location, u.Location},
		{"notification_settings", &j.notificationSettings, u.NotificationSettings},
		{"daily_referrals", &j.dailyReferrals, u.DailyReferrals},
		{"progress", &j.progress, u.Progress},
		{"preparation_progress", &j.preparationProgress, u.PreparationProgress},
		{"basic_progress", &j.basicProgress, u.BasicProgress},
		{"memorized_names", &j.memorizedNames, u.MemorizedNames},
		{"earned_tasks", &j.earnedTasks, u.EarnedTasks},
		{"unlocked_badges", &j.unlockedBadges, u.UnlockedBadges},
		{"completed_juzs", &j.completedJuzs, u.CompletedJuzs},
		{"completed_tasks", &j.completedTasks, u.CompletedTasks},
	} {
		b, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f.name, err)
		}
		*f.dst = b
	}
	return j, nil
}

// scanUser reads one row in userColumns order into a domain.User.
func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u            domain.User
		location     []byte
		settings     []byte
		referrals    []byte
		progress     []byte
		preparation  []byte
		basic        []byte
		memorized    []byte
		earned       []byte
		badges       []byte
		juzs         []byte
		completed    []byte
		custom       []byte
		paymentDate  sql.NullTime
		demoExpires  sql.NullTime
		status, step string
		access       string
	)

	err := s.Scan(
		&u.UserID, &u.Username, &u.Name, &u.PhotoURL, &u.PhoneNumber, &u.PromoCode, &u.Language,
		&location, &settings,
		&u.ReferredBy, &u.UsedPromoCode, &u.ReferralBonusGiven, &u.InvitedCount, &referrals,
		&status, &u.PaidAmount, &u.HasDiscount, &u.ReceiptFileID, &paymentDate, &access, &demoExpires,
		&step, &u.OnboardingCompleted,
		&progress, &preparation, &basic, &memorized, &earned,
		&u.XP, &u.CurrentStreak, &u.LongestStreak, &u.LastActiveDate, &badges,
		&juzs, &u.QuranKhatams, &completed, &custom, &u.QuranGoal, &u.DailyQuranGoal, &u.DailyCharityGoal,
		&u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.PaymentStatus = domain.PaymentStatus(status)
	u.AccessType = domain.AccessType(access)
	u.OnboardingStep = domain.OnboardingStep(step)
	if paymentDate.Valid {
		t := paymentDate.Time
		u.PaymentDate = &t
	}
	if demoExpires.Valid {
		t := demoExpires.Time
		u.DemoExpiresAt = &t
	}
	if len(custom) > 0 {
		u.CustomTasks = json.RawMessage(custom)
	}

	for _, f := range []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"location", location, &u.Location},
		{"notification_settings", settings, &u.NotificationSettings},
		{"daily_referrals", referrals, &u.DailyReferrals},
		{"progress", progress, &u.Progress},
		{"preparation_progress", preparation, &u.PreparationProgress},
		{"basic_progress", basic, &u.BasicProgress},
		{"memorized_names", memorized, &u.MemorizedNames},
		{"earned_tasks", earned, &u.EarnedTasks},
		{"unlocked_badges", badges, &u.UnlockedBadges},
		{"completed_juzs", juzs, &u.CompletedJuzs},
		{"completed_tasks", completed, &u.CompletedTasks},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", f.name, err)
		}
	}

	// Old rows may carry JSON nulls; syncs expect workable containers.
	if u.Progress == nil {
		u.Progress = domain.ProgressMap{}
	}
	if u.PreparationProgress == nil {
		u.PreparationProgress = domain.ProgressMap{}
	}
	if u.BasicProgress == nil {
		u.BasicProgress = domain.ProgressMap{}
	}
	if u.EarnedTasks == nil {
		u.EarnedTasks = domain.Ledger{}
	}
	if u.DailyReferrals == nil {
		u.DailyReferrals = map[string]int{}
	}

	return &u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullRaw(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
)

// UserRepo implements repository.UserRepository on PostgreSQL. Document-shaped
// snapshot fields (progress namespaces, ledger, referral counters) live in
// JSONB columns; counters that need atomic increments stay relational.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `user_id, username, name, photo_url, phone_number, promo_code, language,
		location, notification_settings,
		referred_by, used_promo_code, referral_bonus_given, invited_count, daily_referrals,
		payment_status, paid_amount, has_discount, receipt_file_id, payment_date, access_type, demo_expires_at,
		onboarding_step, onboarding_completed,
		progress, preparation_progress, basic_progress, memorized_names, earned_tasks,
		xp, current_streak, longest_streak, last_active_date, unlocked_badges,
		completed_juzs, quran_khatams, completed_tasks, custom_tasks, quran_goal, daily_quran_goal, daily_charity_goal,
		version, created_at, updated_at`

// GetByID loads a user snapshot by Telegram id
func (r *UserRepo) GetByID(userID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.db.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// GetByPromoCode loads the owner of a promo code
func (r *UserRepo) GetByPromoCode(promoCode string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE promo_code = $1`
	u, err := scanUser(r.db.QueryRow(query, promoCode))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by promo code: %w", err)
	}
	return u, nil
}

// GetByUsername loads a user by Telegram username, case-insensitively
// and tolerant of a stored leading "@".
func (r *UserRepo) GetByUsername(username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(TRIM(LEADING '@' FROM username)) = LOWER($1)`
	u, err := scanUser(r.db.QueryRow(query, username))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// Create inserts a fresh snapshot. Conflicting inserts for the same user
// id are ignored so /start is safe to repeat.
func (r *UserRepo) Create(u *domain.User) error {
	j, err := newJSONFields(u)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (
			user_id, username, name, photo_url, phone_number, promo_code, language,
			location, notification_settings,
			referred_by, used_promo_code, referral_bonus_given, invited_count, daily_referrals,
			payment_status, paid_amount, has_discount, receipt_file_id, payment_date, access_type, demo_expires_at,
			onboarding_step, onboarding_completed,
			progress, preparation_progress, basic_progress, memorized_names, earned_tasks,
			xp, current_streak, longest_streak, last_active_date, unlocked_badges,
			completed_juzs, quran_khatams, completed_tasks, custom_tasks, quran_goal, daily_quran_goal, daily_charity_goal,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21,
			$22, $23,
			$24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33,
			$34, $35, $36, $37, $38, $39, $40,
			1, NOW(), NOW()
		)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err = r.db.Exec(query,
		u.UserID, u.Username, u.Name, u.PhotoURL, u.PhoneNumber, u.PromoCode, u.Language,
		j.location, j.notificationSettings,
		u.ReferredBy, u.UsedPromoCode, u.ReferralBonusGiven, u.InvitedCount, j.dailyReferrals,
		string(u.PaymentStatus), u.PaidAmount, u.HasDiscount, u.ReceiptFileID, nullTime(u.PaymentDate), string(u.AccessType), nullTime(u.DemoExpiresAt),
		string(u.OnboardingStep), u.OnboardingCompleted,
		j.progress, j.preparationProgress, j.basicProgress, j.memorizedNames, j.earnedTasks,
		u.XP, u.CurrentStreak, u.LongestStreak, u.LastActiveDate, j.unlockedBadges,
		j.completedJuzs, u.QuranKhatams, j.completedTasks, nullRaw(u.CustomTasks), u.QuranGoal, u.DailyQuranGoal, u.DailyCharityGoal,
	)
	if err != nil {
		return fmt.Errorf("create user %d: %w", u.UserID, err)
	}
	return nil
}

// SaveSnapshot writes the progress and gamification fields with a
// compare-and-swap on the version column. A lost race yields
// repository.ErrVersionConflict; the service reloads and retries.
func (r *UserRepo) SaveSnapshot(u *domain.User, expectedVersion int64) error {
	j, err := newJSONFields(u)
	if err != nil {
		return err
	}

	query := `
		UPDATE users SET
			progress = $2, preparation_progress = $3, basic_progress = $4,
			memorized_names = $5, earned_tasks = $6,
			xp = $7, current_streak = $8, longest_streak = $9, last_active_date = $10,
			name = $11, username = $12, photo_url = $13,
			completed_juzs = $14, quran_khatams = $15, completed_tasks = $16, custom_tasks = $17,
			quran_goal = $18, daily_quran_goal = $19, daily_charity_goal = $20, language = $21,
			version = version + 1, updated_at = NOW()
		WHERE user_id = $1 AND version = $22
	`
	res, err := r.db.Exec(query,
		u.UserID,
		j.progress, j.preparationProgress, j.basicProgress,
		j.memorizedNames, j.earnedTasks,
		u.XP, u.CurrentStreak, u.LongestStreak, u.LastActiveDate,
		u.Name, u.Username, u.PhotoURL,
		j.completedJuzs, u.QuranKhatams, j.completedTasks, nullRaw(u.CustomTasks),
		u.QuranGoal, u.DailyQuranGoal, u.DailyCharityGoal, u.Language,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("save snapshot for user %d: %w", u.UserID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save snapshot for user %d: %w", u.UserID, err)
	}
	if affected == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

// SaveOnboarding persists profile and onboarding-flow fields. The flow is
// single-writer per user (one Telegram chat), so no CAS is needed here.
func (r *UserRepo) SaveOnboarding(u *domain.User) error {
	location, err := json.Marshal(u.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	settings, err := json.Marshal(u.NotificationSettings)
	if err != nil {
		return fmt.Errorf("marshal notification settings: %w", err)
	}

	query := `
		UPDATE users SET
			name = $2, phone_number = $3, location = $4, notification_settings = $5,
			onboarding_step = $6, onboarding_completed = $7,
			referred_by = $8, used_promo_code = $9, referral_bonus_given = $10,
			has_discount = $11, language = $12, paid_amount = $13, updated_at = NOW()
		WHERE user_id = $1
	`
	res, err := r.db.Exec(query,
		u.UserID, u.Name, u.PhoneNumber, location, settings,
		string(u.OnboardingStep), u.OnboardingCompleted,
		u.ReferredBy, u.UsedPromoCode, u.ReferralBonusGiven,
		u.HasDiscount, u.Language, u.PaidAmount,
	)
	if err != nil {
		return fmt.Errorf("save onboarding for user %d: %w", u.UserID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// AddXP atomically increments the cumulative XP counter.
func (r *UserRepo) AddXP(userID int64, amount int) error {
	query := `UPDATE users SET xp = xp + $2, updated_at = NOW() WHERE user_id = $1`
	res, err := r.db.Exec(query, userID, amount)
	if err != nil {
		return fmt.Errorf("add xp for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// IncrementDailyReferrals bumps the referrer's counter for the given date
// and invitedCount in one statement, returning the new per-date count.
func (r *UserRepo) IncrementDailyReferrals(userID int64, date string) (int, error) {
	query := `
		UPDATE users SET
			daily_referrals = jsonb_set(
				COALESCE(daily_referrals, '{}'::jsonb),
				ARRAY[$2],
				to_jsonb(COALESCE((daily_referrals ->> $2)::int, 0) + 1)
			),
			invited_count = invited_count + 1,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING (daily_referrals ->> $2)::int
	`
	var count int
	err := r.db.QueryRow(query, userID, date).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment referrals for user %d: %w", userID, err)
	}
	return count, nil
}

// SetBadges replaces the unlocked badge list. Badges only ever grow, so a
// plain overwrite with the recomputed list is safe.
func (r *UserRepo) SetBadges(userID int64, badges []string) error {
	b, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}
	query := `UPDATE users SET unlocked_badges = $2, updated_at = NOW() WHERE user_id = $1`
	res, err := r.db.Exec(query, userID, b)
	if err != nil {
		return fmt.Errorf("set badges for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// SetPaymentPending stores the submitted receipt and moves the user into
// the manual review queue.
func (r *UserRepo) SetPaymentPending(userID int64, receiptFileID string) error {
	query := `
		UPDATE users SET
			payment_status = 'pending', receipt_file_id = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	res, err := r.db.Exec(query, userID, receiptFileID)
	if err != nil {
		return fmt.Errorf("set payment pending for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// ApprovePayment grants full access and completes onboarding.
func (r *UserRepo) ApprovePayment(userID int64) error {
	query := `
		UPDATE users SET
			payment_status = 'paid', access_type = 'full', payment_date = NOW(),
			onboarding_step = 'completed', onboarding_completed = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`
	res, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("approve payment for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// RejectPayment marks the payment rejected and grants consolation demo
// access until the given time.
func (r *UserRepo) RejectPayment(userID int64, demoExpiresAt time.Time) error {
	query := `
		UPDATE users SET
			payment_status = 'rejected', access_type = 'demo', demo_expires_at = $2, updated_at = NOW()
		WHERE user_id = $1
	`
	res, err := r.db.Exec(query, userID, demoExpiresAt)
	if err != nil {
		return fmt.Errorf("reject payment for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// ActivateDemo grants trial access until the given time.
func (r *UserRepo) ActivateDemo(userID int64, expiresAt time.Time) error {
	query := `
		UPDATE users SET
			access_type = 'demo', demo_expires_at = $2,
			onboarding_step = 'completed', onboarding_completed = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`
	res, err := r.db.Exec(query, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("activate demo for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// ListPendingPayments returns users whose receipts await admin review.
func (r *UserRepo) ListPendingPayments() ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE payment_status = 'pending' ORDER BY updated_at`
	return r.listUsers(query)
}

// ListExpiredDemo returns demo users whose access ran out.
func (r *UserRepo) ListExpiredDemo(now time.Time) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE access_type = 'demo' AND demo_expires_at < $1 AND payment_status <> 'paid'`
	return r.listUsers(query, now)
}

// ExpireDemoAccess revokes a lapsed demo.
func (r *UserRepo) ExpireDemoAccess(userID int64) error {
	query := `UPDATE users SET access_type = '', updated_at = NOW() WHERE user_id = $1`
	res, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("expire demo for user %d: %w", userID, err)
	}
	return requireRow(res, repository.ErrNotFound)
}

// ListReminderRecipients returns onboarded users with reminders enabled.
func (r *UserRepo) ListReminderRecipients() ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE onboarding_completed = TRUE
		  AND (notification_settings ->> 'ramadanReminders')::bool = TRUE`
	return r.listUsers(query)
}

func (r *UserRepo) listUsers(query string, args ...interface{}) ([]domain.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

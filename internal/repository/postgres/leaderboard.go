package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"imantap/internal/domain"
	"imantap/internal/repository"
)

// activeFilter limits rankings to users who unlocked the app.
const activeFilter = `(payment_status = 'paid' OR access_type = 'demo')`

// LeaderboardRepo implements repository.LeaderboardRepository
type LeaderboardRepo struct {
	db *sql.DB
}

// NewLeaderboardRepo creates a new leaderboard repository
func NewLeaderboardRepo(db *sql.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// Global returns the paginated XP ranking and the total entry count.
func (r *LeaderboardRepo) Global(limit, offset int) ([]domain.LeaderboardEntry, int, error) {
	query := `
		SELECT user_id, username, name, photo_url, xp, current_streak, unlocked_badges, invited_count
		FROM users
		WHERE ` + activeFilter + ` AND xp > 0
		ORDER BY xp DESC
		LIMIT $1 OFFSET $2
	`
	entries, err := r.listEntries(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range entries {
		entries[i].Rank = offset + i + 1
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + activeFilter + ` AND xp > 0`
	if err := r.db.QueryRow(countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leaderboard: %w", err)
	}
	return entries, total, nil
}

// Friends ranks the users invited with the given promo code.
func (r *LeaderboardRepo) Friends(promoCode string, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT user_id, username, name, photo_url, xp, current_streak, unlocked_badges, invited_count
		FROM users
		WHERE referred_by = $1 AND ` + activeFilter + `
		ORDER BY xp DESC
		LIMIT $2
	`
	entries, err := r.listEntries(query, promoCode, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Rank returns the user's 1-based position among active users and the
// total number of ranked users.
func (r *LeaderboardRepo) Rank(userID int64) (int, int, error) {
	var xp int
	err := r.db.QueryRow(`SELECT xp FROM users WHERE user_id = $1`, userID).Scan(&xp)
	if err == sql.ErrNoRows {
		return 0, 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("rank for user %d: %w", userID, err)
	}

	var ahead, total int
	query := `SELECT COUNT(*) FROM users WHERE ` + activeFilter + ` AND xp > $1`
	if err := r.db.QueryRow(query, xp).Scan(&ahead); err != nil {
		return 0, 0, fmt.Errorf("rank for user %d: %w", userID, err)
	}
	totalQuery := `SELECT COUNT(*) FROM users WHERE ` + activeFilter + ` AND xp > 0`
	if err := r.db.QueryRow(totalQuery).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("rank for user %d: %w", userID, err)
	}
	return ahead + 1, total, nil
}

func (r *LeaderboardRepo) listEntries(query string, args ...interface{}) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var (
			e      domain.LeaderboardEntry
			badges []byte
		)
		if err := rows.Scan(&e.UserID, &e.Username, &e.Name, &e.PhotoURL,
			&e.XP, &e.CurrentStreak, &badges, &e.InvitedCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		if len(badges) > 0 {
			if err := json.Unmarshal(badges, &e.UnlockedBadges); err != nil {
				return nil, fmt.Errorf("unmarshal badges: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	return entries, nil
}

package postgres

import (
	"database/sql"
	"fmt"

	"imantap/internal/domain"
	"imantap/internal/repository"
)

// CircleRepo implements repository.CircleRepository. The circle row
// holds the settings inline; membership lives in circle_members with
// identity joined from users at read time, so the details view always
// shows current names and photos.
type CircleRepo struct {
	db *sql.DB
}

// NewCircleRepo creates a new circle repository
func NewCircleRepo(db *sql.DB) *CircleRepo {
	return &CircleRepo{db: db}
}

const circleColumns = `circle_id, name, description, owner_id, invite_code,
		max_members, is_private, show_realtime_progress, created_at, updated_at`

// Create inserts the circle and its owner membership row in one
// transaction.
func (r *CircleRepo) Create(c *domain.Circle) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("create circle: %w", err)
	}
	defer tx.Rollback()

	circleQuery := `
		INSERT INTO circles (
			circle_id, name, description, owner_id, invite_code,
			max_members, is_private, show_realtime_progress, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	if _, err := tx.Exec(circleQuery,
		c.CircleID, c.Name, c.Description, c.OwnerID, c.InviteCode,
		c.Settings.MaxMembers, c.Settings.IsPrivate, c.Settings.ShowRealTimeProgress,
	); err != nil {
		return fmt.Errorf("create circle %s: %w", c.CircleID, err)
	}

	memberQuery := `
		INSERT INTO circle_members (circle_id, user_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := tx.Exec(memberQuery,
		c.CircleID, c.OwnerID, string(domain.CircleOwner), string(domain.MemberActive),
	); err != nil {
		return fmt.Errorf("create circle owner member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create circle %s: %w", c.CircleID, err)
	}
	return nil
}

// GetByID loads a circle with its full member list.
func (r *CircleRepo) GetByID(circleID string) (*domain.Circle, error) {
	query := `SELECT ` + circleColumns + ` FROM circles WHERE circle_id = $1`
	return r.getCircle(query, circleID)
}

// GetByInviteCode loads a circle by its join code.
func (r *CircleRepo) GetByInviteCode(code string) (*domain.Circle, error) {
	query := `SELECT ` + circleColumns + ` FROM circles WHERE invite_code = $1`
	return r.getCircle(query, code)
}

// HasActiveCircle reports whether the owner already runs a circle with
// at least one active member.
func (r *CircleRepo) HasActiveCircle(ownerID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM circles c
			JOIN circle_members m ON m.circle_id = c.circle_id
			WHERE c.owner_id = $1 AND m.status = 'active'
		)
	`
	if err := r.db.QueryRow(query, ownerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active circle: %w", err)
	}
	return exists, nil
}

// ListByMember returns the circles where the user is an active or
// pending member.
func (r *CircleRepo) ListByMember(userID int64) ([]domain.Circle, error) {
	query := `
		SELECT c.circle_id FROM circles c
		JOIN circle_members m ON m.circle_id = c.circle_id
		WHERE m.user_id = $1 AND m.status IN ('active', 'pending')
		ORDER BY c.created_at
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list circles for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan circle id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list circles for user %d: %w", userID, err)
	}

	circles := make([]domain.Circle, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		circles = append(circles, *c)
	}
	return circles, nil
}

// UpsertMember inserts the membership row, or revives an existing one
// with the given role and status.
func (r *CircleRepo) UpsertMember(circleID string, userID int64, role domain.CircleRole, status domain.CircleMemberStatus) error {
	query := `
		INSERT INTO circle_members (circle_id, user_id, role, status, joined_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (circle_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status, joined_at = NOW()
	`
	if _, err := r.db.Exec(query, circleID, userID, string(role), string(status)); err != nil {
		return fmt.Errorf("upsert circle member: %w", err)
	}
	return r.touch(circleID)
}

// SetMemberStatus flips the member's status.
func (r *CircleRepo) SetMemberStatus(circleID string, userID int64, status domain.CircleMemberStatus) error {
	query := `UPDATE circle_members SET status = $3 WHERE circle_id = $1 AND user_id = $2`
	res, err := r.db.Exec(query, circleID, userID, string(status))
	if err != nil {
		return fmt.Errorf("set circle member status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set circle member status: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return r.touch(circleID)
}

// Delete removes the circle; membership rows go with it.
func (r *CircleRepo) Delete(circleID string) error {
	res, err := r.db.Exec(`DELETE FROM circles WHERE circle_id = $1`, circleID)
	if err != nil {
		return fmt.Errorf("delete circle %s: %w", circleID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete circle %s: %w", circleID, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CircleRepo) touch(circleID string) error {
	if _, err := r.db.Exec(`UPDATE circles SET updated_at = NOW() WHERE circle_id = $1`, circleID); err != nil {
		return fmt.Errorf("touch circle %s: %w", circleID, err)
	}
	return nil
}

func (r *CircleRepo) getCircle(query string, arg interface{}) (*domain.Circle, error) {
	c := &domain.Circle{}
	err := r.db.QueryRow(query, arg).Scan(
		&c.CircleID, &c.Name, &c.Description, &c.OwnerID, &c.InviteCode,
		&c.Settings.MaxMembers, &c.Settings.IsPrivate, &c.Settings.ShowRealTimeProgress,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get circle: %w", err)
	}

	members, err := r.listMembers(c.CircleID)
	if err != nil {
		return nil, err
	}
	c.Members = members
	return c, nil
}

func (r *CircleRepo) listMembers(circleID string) ([]domain.Member, error) {
	query := `
		SELECT m.user_id, u.username, u.name, u.photo_url, m.role, m.status, m.joined_at
		FROM circle_members m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.circle_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.db.Query(query, circleID)
	if err != nil {
		return nil, fmt.Errorf("list circle members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var (
			m            domain.Member
			role, status string
		)
		if err := rows.Scan(&m.UserID, &m.Username, &m.Name, &m.PhotoURL,
			&role, &status, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan circle member: %w", err)
		}
		m.Role = domain.CircleRole(role)
		m.Status = domain.CircleMemberStatus(status)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list circle members: %w", err)
	}
	return members, nil
}

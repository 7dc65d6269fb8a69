package postgres

import (
	"database/sql"
	"fmt"
)

// AdminRepo implements repository.AdminRepository
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo creates a new admin repository
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{db: db}
}

// IsAdmin checks the manager table. The main admin from config is handled
// by the caller and is never stored here.
func (r *AdminRepo) IsAdmin(telegramID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM admins WHERE telegram_id = $1)`
	if err := r.db.QueryRow(query, telegramID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

// List returns all manager ids.
func (r *AdminRepo) List() ([]int64, error) {
	rows, err := r.db.Query(`SELECT telegram_id FROM admins ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return ids, nil
}

// Add registers a manager.
func (r *AdminRepo) Add(telegramID, addedBy int64, username string) error {
	query := `
		INSERT INTO admins (telegram_id, username, role, added_by, added_at)
		VALUES ($1, $2, 'manager', $3, NOW())
		ON CONFLICT (telegram_id) DO NOTHING
	`
	if _, err := r.db.Exec(query, telegramID, username, addedBy); err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	return nil
}

// Remove deletes a manager.
func (r *AdminRepo) Remove(telegramID int64) error {
	if _, err := r.db.Exec(`DELETE FROM admins WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}
	return nil
}

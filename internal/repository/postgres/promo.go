package postgres

import (
	"database/sql"
	"fmt"
)

// PromoRepo implements repository.PromoRepository over the single-use
// redemption table.
type PromoRepo struct {
	db *sql.DB
}

// NewPromoRepo creates a new promo repository
func NewPromoRepo(db *sql.DB) *PromoRepo {
	return &PromoRepo{db: db}
}

// IsUsed reports whether the promo code was already redeemed.
func (r *PromoRepo) IsUsed(promoCode string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM used_promocodes WHERE promo_code = $1)`
	if err := r.db.QueryRow(query, promoCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("check promo code: %w", err)
	}
	return exists, nil
}

// MarkUsed records a redemption. Repeated redemption attempts are ignored;
// the validity check happens before this call.
func (r *PromoRepo) MarkUsed(promoCode string, usedBy int64) error {
	query := `
		INSERT INTO used_promocodes (promo_code, used_by, used_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (promo_code) DO NOTHING
	`
	if _, err := r.db.Exec(query, promoCode, usedBy); err != nil {
		return fmt.Errorf("mark promo code used: %w", err)
	}
	return nil
}

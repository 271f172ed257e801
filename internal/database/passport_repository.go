package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// PassportRepository handles a consumer's cheese passport stamps
type PassportRepository struct {
	db *sqlx.DB
}

// NewPassportRepository creates a new PassportRepository
func NewPassportRepository(db *sqlx.DB) *PassportRepository {
	return &PassportRepository{db: db}
}

// AddStamp records a tasting. Re-stamping the same cheese at the same business
// updates rating and notes instead of duplicating.
func (r *PassportRepository) AddStamp(stamp *models.PassportStamp) error {
	if stamp.ID == uuid.Nil {
		stamp.ID = uuid.New()
	}
	if stamp.Source == "" {
		stamp.Source = models.StampSourceManual
	}

	query := `
		INSERT INTO passport_stamps (id, user_id, business_id, cheese_name, rating, notes, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, business_id, cheese_name)
		DO UPDATE SET rating = EXCLUDED.rating, notes = EXCLUDED.notes
		RETURNING id, stamped_at
	`

	err := r.db.QueryRowx(query,
		stamp.ID, stamp.UserID, stamp.BusinessID, stamp.CheeseName, stamp.Rating, stamp.Notes, stamp.Source,
	).Scan(&stamp.ID, &stamp.StampedAt)
	if err != nil {
		return fmt.Errorf("failed to add passport stamp: %w", err)
	}

	return nil
}

// ListByUser returns a consumer's stamps with business name and region
func (r *PassportRepository) ListByUser(userID uuid.UUID) ([]*models.PassportStamp, error) {
	stamps := []*models.PassportStamp{}

	query := `
		SELECT p.id, p.user_id, p.business_id, p.cheese_name, p.rating, p.notes, p.source, p.stamped_at,
		       b.name AS business_name, b.region
		FROM passport_stamps p
		JOIN businesses b ON b.id = p.business_id
		WHERE p.user_id = $1
		ORDER BY p.stamped_at DESC
	`

	if err := r.db.Select(&stamps, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list passport stamps: %w", err)
	}

	return stamps, nil
}

// Summary aggregates a consumer's stamps
func (r *PassportRepository) Summary(userID uuid.UUID) (*models.PassportSummary, error) {
	var summary models.PassportSummary

	query := `
		SELECT COUNT(*) AS total_stamps,
		       COUNT(DISTINCT p.business_id) AS distinct_businesses,
		       COUNT(DISTINCT lower(p.cheese_name)) AS distinct_cheeses,
		       COUNT(DISTINCT b.region) AS distinct_regions
		FROM passport_stamps p
		JOIN businesses b ON b.id = p.business_id
		WHERE p.user_id = $1
	`

	if err := r.db.Get(&summary, query, userID); err != nil {
		return nil, fmt.Errorf("failed to summarise passport: %w", err)
	}

	return &summary, nil
}

// DeleteStamp removes one of the user's own stamps
func (r *PassportRepository) DeleteStamp(id, userID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM passport_stamps WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete passport stamp: %w", err)
	}

	return requireAffected(result)
}

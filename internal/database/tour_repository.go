package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const tourColumns = `t.id, t.business_id, t.title, t.description, t.duration_minutes, t.price_cents,
		       t.max_group_size, t.languages, t.cancellation_cutoff_hours, t.is_active,
		       t.created_at, t.updated_at`

const scheduleColumns = `s.id, s.tour_id, s.starts_at, s.ends_at, s.capacity, s.status, s.created_at, s.updated_at`

// TourRepository handles tours and their schedules
type TourRepository struct {
	db *sqlx.DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db *sqlx.DB) *TourRepository {
	return &TourRepository{db: db}
}

// ============================================================================
// TOURS
// ============================================================================

// CreateTour inserts a new tour
func (r *TourRepository) CreateTour(t *models.Tour) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CancellationCutoffHours < 0 {
		t.CancellationCutoffHours = models.DefaultCancellationCutoffHours
	}
	t.IsActive = true

	query := `
		INSERT INTO tours (
			id, business_id, title, description, duration_minutes, price_cents,
			max_group_size, languages, cancellation_cutoff_hours, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query,
		t.ID, t.BusinessID, t.Title, t.Description, t.DurationMinutes, t.PriceCents,
		t.MaxGroupSize, t.Languages, t.CancellationCutoffHours, t.IsActive,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	return nil
}

// GetTour retrieves a tour by ID
func (r *TourRepository) GetTour(id uuid.UUID) (*models.Tour, error) {
	var t models.Tour

	err := r.db.Get(&t, `SELECT `+tourColumns+` FROM tours t WHERE t.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	return &t, nil
}

// ListTours returns active tours of active businesses, optionally for one business
func (r *TourRepository) ListTours(businessID uuid.NullUUID, limit, offset int) ([]*models.Tour, error) {
	tours := []*models.Tour{}

	query := `SELECT ` + tourColumns + `
		FROM tours t
		JOIN businesses b ON b.id = t.business_id
		WHERE t.is_active = TRUE AND b.is_active = TRUE
		  AND ($1::uuid IS NULL OR t.business_id = $1)
		ORDER BY t.title ASC
		LIMIT $2 OFFSET $3
	`

	if err := r.db.Select(&tours, query, businessID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}

	return tours, nil
}

// UpdateTour saves the editable fields of a tour
func (r *TourRepository) UpdateTour(t *models.Tour) error {
	query := `
		UPDATE tours
		SET title = $1, description = $2, duration_minutes = $3, price_cents = $4,
		    max_group_size = $5, languages = $6, cancellation_cutoff_hours = $7, updated_at = $8
		WHERE id = $9
	`

	t.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		t.Title, t.Description, t.DurationMinutes, t.PriceCents,
		t.MaxGroupSize, t.Languages, t.CancellationCutoffHours, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}

	return requireAffected(result)
}

// DeactivateTour stops a tour from being listed or booked
func (r *TourRepository) DeactivateTour(id uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE tours SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tour: %w", err)
	}

	return requireAffected(result)
}

// ============================================================================
// SCHEDULES
// ============================================================================

// CreateSchedule inserts a new slot for a tour
func (r *TourRepository) CreateSchedule(s *models.TourSchedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Status = models.ScheduleStatusScheduled

	query := `
		INSERT INTO tour_schedules (id, tour_id, starts_at, ends_at, capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query, s.ID, s.TourID, s.StartsAt, s.EndsAt, s.Capacity, s.Status).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tour schedule: %w", err)
	}

	return nil
}

// GetSchedule retrieves a schedule by ID
func (r *TourRepository) GetSchedule(id uuid.UUID) (*models.TourSchedule, error) {
	var s models.TourSchedule

	err := r.db.Get(&s, `SELECT `+scheduleColumns+` FROM tour_schedules s WHERE s.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tour schedule: %w", err)
	}

	return &s, nil
}

// ListSchedules returns the slots of a tour starting in [from, to), ordered by start.
// Cancelled slots are skipped unless includeCancelled is set.
func (r *TourRepository) ListSchedules(tourID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.TourSchedule, error) {
	schedules := []models.TourSchedule{}

	query := `SELECT ` + scheduleColumns + `
		FROM tour_schedules s
		WHERE s.tour_id = $1
		  AND s.starts_at >= $2 AND s.starts_at < $3
		  AND ($4 = TRUE OR s.status <> 'cancelled')
		ORDER BY s.starts_at ASC
	`

	if err := r.db.Select(&schedules, query, tourID, from, to, includeCancelled); err != nil {
		return nil, fmt.Errorf("failed to list tour schedules: %w", err)
	}

	return schedules, nil
}

// BookedParticipants sums participants of pending and confirmed bookings per schedule.
// Schedules without active bookings are absent from the map.
func (r *TourRepository) BookedParticipants(scheduleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	booked := make(map[uuid.UUID]int, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return booked, nil
	}

	ids := make([]string, len(scheduleIDs))
	for i, id := range scheduleIDs {
		ids[i] = id.String()
	}

	var rows []struct {
		ScheduleID uuid.UUID `db:"schedule_id"`
		Booked     int       `db:"booked"`
	}

	query := `
		SELECT schedule_id, COALESCE(SUM(participants), 0) AS booked
		FROM tour_bookings
		WHERE schedule_id = ANY($1::uuid[])
		  AND status IN ('pending', 'confirmed')
		GROUP BY schedule_id
	`

	if err := r.db.Select(&rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to count booked participants: %w", err)
	}

	for _, row := range rows {
		booked[row.ScheduleID] = row.Booked
	}

	return booked, nil
}

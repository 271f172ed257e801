package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const bookingFields = `id, schedule_id, tour_id, user_id, participants, total_cents, status,
		       payment_status, notes, cancellation_reason, cancelled_by, cancelled_at,
		       created_at, updated_at`

const bookingJoinedColumns = `bk.id, bk.schedule_id, bk.tour_id, bk.user_id, bk.participants, bk.total_cents,
		       bk.status, bk.payment_status, bk.notes, bk.cancellation_reason, bk.cancelled_by,
		       bk.cancelled_at, bk.created_at, bk.updated_at,
		       s.starts_at, t.title AS tour_title, t.business_id`

const bookingJoins = `
		FROM tour_bookings bk
		JOIN tour_schedules s ON s.id = bk.schedule_id
		JOIN tours t ON t.id = bk.tour_id`

// NewBooking is the input of a capacity-checked reservation
type NewBooking struct {
	ScheduleID   uuid.UUID
	UserID       uuid.UUID
	Participants int
	Notes        string
	Now          time.Time
}

// TourBookingRepository handles tour bookings
type TourBookingRepository struct {
	db *sqlx.DB
}

// NewTourBookingRepository creates a new TourBookingRepository
func NewTourBookingRepository(db *sqlx.DB) *TourBookingRepository {
	return &TourBookingRepository{db: db}
}

// ============================================================================
// CREATE / READ
// ============================================================================

// CreateBooking reserves seats on a schedule. The schedule row is locked for the
// whole transaction so concurrent bookings cannot exceed capacity.
func (r *TourBookingRepository) CreateBooking(in NewBooking) (*models.TourBooking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var schedule models.TourSchedule
	err = tx.Get(&schedule, `SELECT `+scheduleColumns+` FROM tour_schedules s WHERE s.id = $1 FOR UPDATE`, in.ScheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock tour schedule: %w", err)
	}

	var tour models.Tour
	if err := tx.Get(&tour, `SELECT `+tourColumns+` FROM tours t WHERE t.id = $1`, schedule.TourID); err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}

	if schedule.Status != models.ScheduleStatusScheduled || !schedule.StartsAt.After(in.Now) || !tour.IsActive {
		return nil, models.ErrInvalidStatus
	}
	if tour.MaxGroupSize > 0 && in.Participants > tour.MaxGroupSize {
		return nil, models.NewValidationError("participants", fmt.Sprintf("maximum group size is %d", tour.MaxGroupSize))
	}

	var booked int
	err = tx.Get(&booked, `
		SELECT COALESCE(SUM(participants), 0)
		FROM tour_bookings
		WHERE schedule_id = $1 AND status IN ('pending', 'confirmed')
	`, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count booked participants: %w", err)
	}

	if booked+in.Participants > schedule.Capacity {
		remaining := schedule.Capacity - booked
		if remaining < 0 {
			remaining = 0
		}
		return nil, &models.CapacityError{ScheduleID: schedule.ID, Requested: in.Participants, Remaining: remaining}
	}

	starts := schedule.StartsAt
	title := tour.Title
	businessID := tour.BusinessID
	booking := &models.TourBooking{
		ID:            uuid.New(),
		ScheduleID:    schedule.ID,
		TourID:        tour.ID,
		UserID:        in.UserID,
		Participants:  in.Participants,
		TotalCents:    tour.PriceCents * int64(in.Participants),
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStateUnpaid,
		Notes:         models.NewNullString(in.Notes),
		StartsAt:      &starts,
		TourTitle:     &title,
		BusinessID:    &businessID,
	}
	if booking.TotalCents == 0 {
		booking.Status = models.BookingStatusConfirmed
		booking.PaymentStatus = models.PaymentStateNotRequired
	}

	err = tx.QueryRowx(`
		INSERT INTO tour_bookings (
			id, schedule_id, tour_id, user_id, participants, total_cents, status, payment_status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`,
		booking.ID, booking.ScheduleID, booking.TourID, booking.UserID, booking.Participants,
		booking.TotalCents, booking.Status, booking.PaymentStatus, booking.Notes,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return booking, nil
}

// GetByID retrieves a booking with its schedule start and tour details
func (r *TourBookingRepository) GetByID(id uuid.UUID) (*models.TourBooking, error) {
	var booking models.TourBooking

	err := r.db.Get(&booking, `SELECT `+bookingJoinedColumns+bookingJoins+` WHERE bk.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// ListByUser returns a customer's bookings, most recent slot first
func (r *TourBookingRepository) ListByUser(userID uuid.UUID) ([]*models.TourBooking, error) {
	bookings := []*models.TourBooking{}

	query := `SELECT ` + bookingJoinedColumns + bookingJoins + `
		WHERE bk.user_id = $1
		ORDER BY s.starts_at DESC
	`

	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}

	return bookings, nil
}

// ListByBusiness returns bookings on every tour of a business, optionally by status
func (r *TourBookingRepository) ListByBusiness(businessID uuid.UUID, status string) ([]*models.TourBooking, error) {
	bookings := []*models.TourBooking{}

	query := `SELECT ` + bookingJoinedColumns + bookingJoins + `
		WHERE t.business_id = $1 AND ($2 = '' OR bk.status = $2)
		ORDER BY s.starts_at ASC
	`

	if err := r.db.Select(&bookings, query, businessID, status); err != nil {
		return nil, fmt.Errorf("failed to list business bookings: %w", err)
	}

	return bookings, nil
}

// ============================================================================
// CANCELLATION
// ============================================================================

// CancelBooking marks an active booking cancelled. Paid bookings move to
// refund_pending; the caller requests the refund after this returns.
func (r *TourBookingRepository) CancelBooking(id, actorID uuid.UUID, reason string) (*models.TourBooking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.TourBookingStatus
	err = tx.Get(&status, `SELECT status FROM tour_bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	if !status.IsActive() {
		return nil, models.ErrInvalidStatus
	}

	var booking models.TourBooking
	err = tx.Get(&booking, `
		UPDATE tour_bookings
		SET status = 'cancelled',
		    cancellation_reason = $1,
		    cancelled_by = $2,
		    cancelled_at = NOW(),
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refund_pending' ELSE payment_status END,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING `+bookingFields, reason, actorID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &booking, nil
}

// CancelSchedule cancels a slot and every active booking on it in one transaction.
// It returns the cancelled bookings so paid ones can be refunded.
func (r *TourBookingRepository) CancelSchedule(scheduleID, actorID uuid.UUID) ([]*models.TourBooking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.TourScheduleStatus
	err = tx.Get(&status, `SELECT status FROM tour_schedules WHERE id = $1 FOR UPDATE`, scheduleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock tour schedule: %w", err)
	}
	if status != models.ScheduleStatusScheduled {
		return nil, models.ErrInvalidStatus
	}

	if _, err := tx.Exec(`UPDATE tour_schedules SET status = 'cancelled', updated_at = NOW() WHERE id = $1`, scheduleID); err != nil {
		return nil, fmt.Errorf("failed to cancel tour schedule: %w", err)
	}

	cancelled := []*models.TourBooking{}
	err = tx.Select(&cancelled, `
		UPDATE tour_bookings
		SET status = 'cancelled',
		    cancellation_reason = $1,
		    cancelled_by = $2,
		    cancelled_at = NOW(),
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refund_pending' ELSE payment_status END,
		    updated_at = NOW()
		WHERE schedule_id = $3 AND status IN ('pending', 'confirmed')
		RETURNING `+bookingFields, models.ReasonScheduleCancelled, actorID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel schedule bookings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return cancelled, nil
}

// ============================================================================
// BACKGROUND JOBS
// ============================================================================

// ExpireUnpaid cancels pending bookings that were not paid before the cutoff
func (r *TourBookingRepository) ExpireUnpaid(createdBefore time.Time) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE tour_bookings
		SET status = 'cancelled',
		    cancellation_reason = $1,
		    cancelled_at = NOW(),
		    updated_at = NOW()
		WHERE status = 'pending'
		  AND payment_status IN ('unpaid', 'failed')
		  AND created_at < $2
	`, models.ReasonPaymentTimeout, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to expire unpaid bookings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CompletionResult summarises one run of CompletePastSchedules
type CompletionResult struct {
	Schedules int64
	Bookings  int64
	Stamps    int64
}

// CompletePastSchedules marks finished slots and their confirmed bookings completed,
// and stamps each attendee's passport with the tour's business.
func (r *TourBookingRepository) CompletePastSchedules(now time.Time) (CompletionResult, error) {
	var res CompletionResult

	tx, err := r.db.Beginx()
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE tour_schedules
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'scheduled' AND ends_at < $1
	`, now)
	if err != nil {
		return res, fmt.Errorf("failed to complete schedules: %w", err)
	}
	if res.Schedules, err = result.RowsAffected(); err != nil {
		return res, fmt.Errorf("failed to get rows affected: %w", err)
	}

	err = tx.QueryRowx(`
		WITH done AS (
			UPDATE tour_bookings bk
			SET status = 'completed', updated_at = NOW()
			FROM tour_schedules s
			WHERE s.id = bk.schedule_id
			  AND s.status = 'completed'
			  AND bk.status = 'confirmed'
			RETURNING bk.user_id, bk.tour_id, s.ends_at
		), stamped AS (
			INSERT INTO passport_stamps (user_id, business_id, cheese_name, source, stamped_at)
			SELECT DISTINCT ON (d.user_id, t.business_id, t.title) d.user_id, t.business_id, t.title, 'tour', d.ends_at
			FROM done d
			JOIN tours t ON t.id = d.tour_id
			ON CONFLICT (user_id, business_id, cheese_name) DO NOTHING
			RETURNING 1
		)
		SELECT (SELECT COUNT(*) FROM done), (SELECT COUNT(*) FROM stamped)
	`).Scan(&res.Bookings, &res.Stamps)
	if err != nil {
		return res, fmt.Errorf("failed to complete bookings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return res, nil
}

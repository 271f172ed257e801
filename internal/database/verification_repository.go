package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const verificationColumns = `v.id, v.business_id, v.submitted_by, v.siret, v.document_urls, v.message,
		       v.status, v.reviewer_id, v.review_notes, v.reviewed_at, v.created_at, v.updated_at,
		       b.name AS business_name`

// VerificationRepository handles business verification requests
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository creates a new VerificationRepository
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Submit files a request and moves the business to pending.
// Returns models.ErrAlreadyPending when one is already open.
func (r *VerificationRepository) Submit(req *models.VerificationRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = models.RequestStatusPending

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowx(`
		INSERT INTO verification_requests (id, business_id, submitted_by, siret, document_urls, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, req.ID, req.BusinessID, req.SubmittedBy, req.SIRET, req.DocumentURLs, req.Message, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.ErrAlreadyPending
		}
		return fmt.Errorf("failed to create verification request: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE businesses SET verification_status = 'pending', siret = $1, updated_at = NOW()
		WHERE id = $2
	`, req.SIRET, req.BusinessID); err != nil {
		return fmt.Errorf("failed to update business verification status: %w", err)
	}

	return tx.Commit()
}

// GetByID retrieves a request
func (r *VerificationRepository) GetByID(id uuid.UUID) (*models.VerificationRequest, error) {
	var req models.VerificationRequest

	err := r.db.Get(&req, `SELECT `+verificationColumns+`
		FROM verification_requests v
		JOIN businesses b ON b.id = v.business_id
		WHERE v.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}

	return &req, nil
}

// ListByBusiness returns the request history of a business, newest first
func (r *VerificationRepository) ListByBusiness(businessID uuid.UUID) ([]*models.VerificationRequest, error) {
	reqs := []*models.VerificationRequest{}

	err := r.db.Select(&reqs, `SELECT `+verificationColumns+`
		FROM verification_requests v
		JOIN businesses b ON b.id = v.business_id
		WHERE v.business_id = $1
		ORDER BY v.created_at DESC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}

	return reqs, nil
}

// ListByStatus returns requests for the admin queue, oldest first
func (r *VerificationRepository) ListByStatus(status string, limit, offset int) ([]*models.VerificationRequest, error) {
	reqs := []*models.VerificationRequest{}

	err := r.db.Select(&reqs, `SELECT `+verificationColumns+`
		FROM verification_requests v
		JOIN businesses b ON b.id = v.business_id
		WHERE ($1 = '' OR v.status = $1)
		ORDER BY v.created_at ASC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}

	return reqs, nil
}

// Review approves or rejects a pending request and updates the business accordingly
func (r *VerificationRepository) Review(id, reviewerID uuid.UUID, approve bool, notes string) (*models.VerificationRequest, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current struct {
		BusinessID uuid.UUID `db:"business_id"`
		Status     string    `db:"status"`
	}
	err = tx.Get(&current, `SELECT business_id, status FROM verification_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock verification request: %w", err)
	}
	if current.Status != models.RequestStatusPending {
		return nil, models.ErrInvalidStatus
	}

	requestStatus, businessStatus := models.RequestStatusRejected, models.VerificationRejected
	if approve {
		requestStatus, businessStatus = models.RequestStatusApproved, models.VerificationVerified
	}

	if _, err := tx.Exec(`
		UPDATE verification_requests
		SET status = $1, reviewer_id = $2, review_notes = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`, requestStatus, reviewerID, models.NewNullString(notes), id); err != nil {
		return nil, fmt.Errorf("failed to update verification request: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE businesses
		SET verification_status = $1,
		    verified_at = CASE WHEN $1 = 'verified' THEN NOW() ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $2
	`, businessStatus, current.BusinessID); err != nil {
		return nil, fmt.Errorf("failed to update business verification status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(id)
}

package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitVerification(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewVerificationRepository(sqlxDB)
		now := time.Now()
		req := &models.VerificationRequest{
			BusinessID:   uuid.New(),
			SubmittedBy:  uuid.New(),
			SIRET:        "73282932000074",
			DocumentURLs: models.StringArray{"/uploads/kbis.pdf"},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO verification_requests`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`UPDATE businesses SET verification_status = 'pending', siret = \$1`).
			WithArgs("73282932000074", req.BusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Submit(req))
		assert.NotEqual(t, uuid.Nil, req.ID)
		assert.Equal(t, models.RequestStatusPending, req.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Pending", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewVerificationRepository(sqlxDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO verification_requests`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_verification_one_pending"})
		mock.ExpectRollback()

		err := repo.Submit(&models.VerificationRequest{BusinessID: uuid.New(), SubmittedBy: uuid.New(), SIRET: "73282932000074"})
		assert.ErrorIs(t, err, models.ErrAlreadyPending)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewVerification(t *testing.T) {
	t.Run("Approve Verifies Business", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewVerificationRepository(sqlxDB)
		id, reviewer, businessID := uuid.New(), uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT business_id, status FROM verification_requests WHERE id = \$1 FOR UPDATE`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"business_id", "status"}).AddRow(businessID.String(), "pending"))
		mock.ExpectExec(`UPDATE verification_requests`).
			WithArgs(models.RequestStatusApproved, reviewer, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE businesses\s+SET verification_status = \$1`).
			WithArgs(models.VerificationVerified, businessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(`FROM verification_requests v\s+JOIN businesses b`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "business_id", "submitted_by", "siret", "document_urls", "message",
				"status", "reviewer_id", "review_notes", "reviewed_at", "created_at", "updated_at", "business_name",
			}).AddRow(
				id.String(), businessID.String(), uuid.NewString(), "73282932000074", "{}", nil,
				"approved", reviewer.String(), "Kbis OK", now, now, now, "Fromagerie Berthaut",
			))

		req, err := repo.Review(id, reviewer, true, "Kbis OK")
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, req.Status)
		assert.Equal(t, "Fromagerie Berthaut", *req.BusinessName)
		assert.Empty(t, req.DocumentURLs)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Reviewed", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewVerificationRepository(sqlxDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT business_id, status FROM verification_requests`).
			WillReturnRows(sqlmock.NewRows([]string{"business_id", "status"}).AddRow(uuid.NewString(), "rejected"))
		mock.ExpectRollback()

		_, err := repo.Review(uuid.New(), uuid.New(), true, "")
		assert.ErrorIs(t, err, models.ErrInvalidStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

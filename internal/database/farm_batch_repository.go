package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const batchColumns = `id, business_id, batch_code, cheese_name, milk_type, quantity, production_date,
		       target_ripening_days, status, notes, created_at, updated_at`

// FarmBatchRepository handles farm batches and their aging logs
type FarmBatchRepository struct {
	db *sqlx.DB
}

// NewFarmBatchRepository creates a new FarmBatchRepository
func NewFarmBatchRepository(db *sqlx.DB) *FarmBatchRepository {
	return &FarmBatchRepository{db: db}
}

// Create inserts a batch. Batch codes are unique per business.
func (r *FarmBatchRepository) Create(batch *models.FarmBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.Status == "" {
		batch.Status = models.BatchStatusAging
	}

	query := `
		INSERT INTO farm_batches (
			id, business_id, batch_code, cheese_name, milk_type, quantity,
			production_date, target_ripening_days, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query,
		batch.ID, batch.BusinessID, batch.BatchCode, batch.CheeseName, batch.MilkType, batch.Quantity,
		batch.ProductionDate, batch.TargetRipeningDays, batch.Status, batch.Notes,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewValidationError("batch_code", "already used by this business")
		}
		return fmt.Errorf("failed to create farm batch: %w", err)
	}

	return nil
}

// GetByID retrieves a batch
func (r *FarmBatchRepository) GetByID(id uuid.UUID) (*models.FarmBatch, error) {
	var batch models.FarmBatch

	err := r.db.Get(&batch, `SELECT `+batchColumns+` FROM farm_batches WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get farm batch: %w", err)
	}

	return &batch, nil
}

// ListByBusiness returns batches of a business, optionally filtered by status
func (r *FarmBatchRepository) ListByBusiness(businessID uuid.UUID, status string) ([]*models.FarmBatch, error) {
	batches := []*models.FarmBatch{}

	query := `SELECT ` + batchColumns + `
		FROM farm_batches
		WHERE business_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY production_date DESC, batch_code ASC
	`

	if err := r.db.Select(&batches, query, businessID, status); err != nil {
		return nil, fmt.Errorf("failed to list farm batches: %w", err)
	}

	return batches, nil
}

// Update saves quantity, ripening target, status and notes
func (r *FarmBatchRepository) Update(batch *models.FarmBatch) error {
	query := `
		UPDATE farm_batches
		SET quantity = $1, target_ripening_days = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`

	batch.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		batch.Quantity, batch.TargetRipeningDays, batch.Status, batch.Notes, batch.UpdatedAt, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to update farm batch: %w", err)
	}

	return requireAffected(result)
}

// AddAgingLog records a cellar entry
func (r *FarmBatchRepository) AddAgingLog(entry *models.AgingLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now()
	}

	query := `
		INSERT INTO aging_logs (
			id, batch_id, logged_at, temperature_c, humidity_pct, action, notes, logged_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowx(query,
		entry.ID, entry.BatchID, entry.LoggedAt, entry.TemperatureC, entry.HumidityPct,
		entry.Action, entry.Notes, entry.LoggedBy,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create aging log: %w", err)
	}

	return nil
}

// ListAgingLogs returns the cellar history of a batch, oldest first
func (r *FarmBatchRepository) ListAgingLogs(batchID uuid.UUID) ([]*models.AgingLog, error) {
	logs := []*models.AgingLog{}

	query := `
		SELECT id, batch_id, logged_at, temperature_c, humidity_pct, action, notes, logged_by, created_at
		FROM aging_logs
		WHERE batch_id = $1
		ORDER BY logged_at ASC
	`

	if err := r.db.Select(&logs, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to list aging logs: %w", err)
	}

	return logs, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// FarmBatchStatus tracks a production batch through the cellar
type FarmBatchStatus string

const (
	BatchStatusAging     FarmBatchStatus = "aging"
	BatchStatusReady     FarmBatchStatus = "ready"
	BatchStatusSoldOut   FarmBatchStatus = "sold_out"
	BatchStatusDiscarded FarmBatchStatus = "discarded"
)

// FarmBatch is one production run of a cheese at a farm or affineur
type FarmBatch struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	BusinessID         uuid.UUID       `db:"business_id" json:"business_id"`
	BatchCode          string          `db:"batch_code" json:"batch_code"`
	CheeseName         string          `db:"cheese_name" json:"cheese_name"`
	MilkType           MilkType        `db:"milk_type" json:"milk_type"`
	Quantity           int             `db:"quantity" json:"quantity"`
	ProductionDate     time.Time       `db:"production_date" json:"production_date"`
	TargetRipeningDays int             `db:"target_ripening_days" json:"target_ripening_days"`
	Status             FarmBatchStatus `db:"status" json:"status"`
	Notes              NullString      `db:"notes" json:"notes"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// ReadyOn returns the date the batch reaches its ripening target
func (b *FarmBatch) ReadyOn() time.Time {
	return b.ProductionDate.AddDate(0, 0, b.TargetRipeningDays)
}

// AgeDays returns the number of full days since production
func (b *FarmBatch) AgeDays(now time.Time) int {
	if now.Before(b.ProductionDate) {
		return 0
	}
	return int(now.Sub(b.ProductionDate).Hours() / 24)
}

// AgingAction is the cellar operation recorded in an aging log
type AgingAction string

const (
	AgingTurned    AgingAction = "turned"
	AgingBrushed   AgingAction = "brushed"
	AgingWashed    AgingAction = "washed"
	AgingSalted    AgingAction = "salted"
	AgingInspected AgingAction = "inspected"
	AgingOther     AgingAction = "other"
)

// AgingLog is a cellar entry for a batch
type AgingLog struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	BatchID      uuid.UUID   `db:"batch_id" json:"batch_id"`
	LoggedAt     time.Time   `db:"logged_at" json:"logged_at"`
	TemperatureC *float64    `db:"temperature_c" json:"temperature_c"`
	HumidityPct  *float64    `db:"humidity_pct" json:"humidity_pct"`
	Action       AgingAction `db:"action" json:"action"`
	Notes        NullString  `db:"notes" json:"notes"`
	LoggedBy     uuid.UUID   `db:"logged_by" json:"logged_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// CreateBatchRequest represents the request to start a production batch
type CreateBatchRequest struct {
	BatchCode          string   `json:"batch_code" binding:"required,max=50"`
	CheeseName         string   `json:"cheese_name" binding:"required,max=200"`
	MilkType           MilkType `json:"milk_type" binding:"required,oneof=cow goat sheep buffalo mixed"`
	Quantity           int      `json:"quantity" binding:"gte=0"`
	ProductionDate     string   `json:"production_date" binding:"required,datetime=2006-01-02"` // YYYY-MM-DD
	TargetRipeningDays int      `json:"target_ripening_days" binding:"gte=0,lte=3650"`
	Notes              string   `json:"notes" binding:"max=2000"`
}

// UpdateBatchRequest represents a partial update of a batch
type UpdateBatchRequest struct {
	Quantity           *int             `json:"quantity,omitempty" binding:"omitempty,gte=0"`
	TargetRipeningDays *int             `json:"target_ripening_days,omitempty" binding:"omitempty,gte=0,lte=3650"`
	Status             *FarmBatchStatus `json:"status,omitempty" binding:"omitempty,oneof=aging ready sold_out discarded"`
	Notes              *string          `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// CreateAgingLogRequest records a cellar operation
type CreateAgingLogRequest struct {
	LoggedAt     *time.Time  `json:"logged_at,omitempty"`
	TemperatureC *float64    `json:"temperature_c,omitempty" binding:"omitempty,gte=-10,lte=40"`
	HumidityPct  *float64    `json:"humidity_pct,omitempty" binding:"omitempty,gte=0,lte=100"`
	Action       AgingAction `json:"action" binding:"required,oneof=turned brushed washed salted inspected other"`
	Notes        string      `json:"notes" binding:"max=2000"`
}

// BatchDetail is a batch with its cellar history
type BatchDetail struct {
	*FarmBatch
	ReadyOn   string      `json:"ready_on"`
	AgeDays   int         `json:"age_days"`
	AgingLogs []*AgingLog `json:"aging_logs"`
}

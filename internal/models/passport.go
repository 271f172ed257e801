package models

import (
	"time"

	"github.com/google/uuid"
)

// Passport stamp sources
const (
	StampSourceManual = "manual"
	StampSourceTour   = "tour"
)

// PassportStamp records a cheese a consumer tasted at a business
type PassportStamp struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	BusinessID uuid.UUID  `db:"business_id" json:"business_id"`
	CheeseName string     `db:"cheese_name" json:"cheese_name"`
	Rating     *int       `db:"rating" json:"rating"`
	Notes      NullString `db:"notes" json:"notes"`
	Source     string     `db:"source" json:"source"`
	StampedAt  time.Time  `db:"stamped_at" json:"stamped_at"`

	// Populated via JOINs
	BusinessName *string `db:"business_name" json:"business_name,omitempty"`
	Region       *string `db:"region" json:"region,omitempty"`
}

// PassportSummary aggregates a consumer's stamps
type PassportSummary struct {
	TotalStamps        int `db:"total_stamps" json:"total_stamps"`
	DistinctBusinesses int `db:"distinct_businesses" json:"distinct_businesses"`
	DistinctCheeses    int `db:"distinct_cheeses" json:"distinct_cheeses"`
	DistinctRegions    int `db:"distinct_regions" json:"distinct_regions"`
}

// CreateStampRequest adds a tasting to the caller's passport
type CreateStampRequest struct {
	BusinessID uuid.UUID `json:"business_id" binding:"required"`
	CheeseName string    `json:"cheese_name" binding:"required,max=200"`
	Rating     *int      `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Notes      string    `json:"notes" binding:"max=2000"`
}

// Passport is the caller's stamps with totals
type Passport struct {
	Summary *PassportSummary `json:"summary"`
	Stamps  []*PassportStamp `json:"stamps"`
}

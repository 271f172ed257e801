package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessType classifies a listing on the map
type BusinessType string

const (
	BusinessTypeFarm       BusinessType = "farm"       // Fermier, produces cheese on site
	BusinessTypeFromagerie BusinessType = "fromagerie" // Cheese shop
	BusinessTypeAffineur   BusinessType = "affineur"   // Aging cellar
	BusinessTypeRestaurant BusinessType = "restaurant"
)

// ValidBusinessTypes lists the accepted business_type values
var ValidBusinessTypes = []BusinessType{
	BusinessTypeFarm,
	BusinessTypeFromagerie,
	BusinessTypeAffineur,
	BusinessTypeRestaurant,
}

// ProducesCheese reports whether the business can track farm batches
func (t BusinessType) ProducesCheese() bool {
	return t == BusinessTypeFarm || t == BusinessTypeAffineur
}

// VerificationStatus constants
const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

// Business represents a producer, shop or restaurant listed on the map
type Business struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	OwnerID      uuid.UUID    `db:"owner_id" json:"owner_id"`
	Name         string       `db:"name" json:"name"`
	BusinessType BusinessType `db:"business_type" json:"business_type"`
	Description  NullString   `db:"description" json:"description"`

	// Location
	Address    string     `db:"address" json:"address"`
	City       string     `db:"city" json:"city"`
	PostalCode string     `db:"postal_code" json:"postal_code"`
	Region     NullString `db:"region" json:"region"`
	Latitude   *float64   `db:"latitude" json:"latitude"`
	Longitude  *float64   `db:"longitude" json:"longitude"`

	// Contact
	Phone   NullString `db:"phone" json:"phone"`
	Email   NullString `db:"email" json:"email"`
	Website NullString `db:"website" json:"website"`
	SIRET   NullString `db:"siret" json:"siret,omitempty"`

	Images StringArray `db:"images" json:"images"`

	// Verification
	VerificationStatus string   `db:"verification_status" json:"verification_status"`
	VerifiedAt         NullTime `db:"verified_at" json:"verified_at"`

	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Populated by proximity searches
	DistanceKm *float64 `db:"distance_km" json:"distance_km,omitempty"`
}

// IsVerified reports whether admins approved the business
func (b *Business) IsVerified() bool {
	return b.VerificationStatus == VerificationVerified
}

// BusinessFilter holds map/listing search parameters
type BusinessFilter struct {
	Type         string
	City         string
	Region       string
	Query        string
	VerifiedOnly bool
	Latitude     *float64
	Longitude    *float64
	RadiusKm     float64
	Limit        int
	Offset       int
}

// HasProximity reports whether the filter is a radius search
func (f BusinessFilter) HasProximity() bool {
	return f.Latitude != nil && f.Longitude != nil && f.RadiusKm > 0
}

// CreateBusinessRequest represents the request to list a new business
type CreateBusinessRequest struct {
	Name         string       `json:"name" binding:"required,min=2,max=200"`
	BusinessType BusinessType `json:"business_type" binding:"required,oneof=farm fromagerie affineur restaurant"`
	Description  string       `json:"description" binding:"max=5000"`
	Address      string       `json:"address" binding:"required,max=300"`
	City         string       `json:"city" binding:"required,max=100"`
	PostalCode   string       `json:"postal_code" binding:"required,len=5,numeric"`
	Region       string       `json:"region" binding:"max=100"`
	Latitude     *float64     `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64     `json:"longitude" binding:"omitempty,longitude"`
	Phone        string       `json:"phone" binding:"omitempty,frphone"`
	Email        string       `json:"email" binding:"omitempty,email"`
	Website      string       `json:"website" binding:"omitempty,url"`
	SIRET        string       `json:"siret" binding:"omitempty,siret"`
}

// UpdateBusinessRequest represents a partial update of a business
type UpdateBusinessRequest struct {
	Name        *string  `json:"name,omitempty" binding:"omitempty,min=2,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=5000"`
	Address     *string  `json:"address,omitempty" binding:"omitempty,max=300"`
	City        *string  `json:"city,omitempty" binding:"omitempty,max=100"`
	PostalCode  *string  `json:"postal_code,omitempty" binding:"omitempty,len=5,numeric"`
	Region      *string  `json:"region,omitempty" binding:"omitempty,max=100"`
	Latitude    *float64 `json:"latitude,omitempty" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" binding:"omitempty,longitude"`
	Phone       *string  `json:"phone,omitempty" binding:"omitempty,frphone"`
	Email       *string  `json:"email,omitempty" binding:"omitempty,email"`
	Website     *string  `json:"website,omitempty" binding:"omitempty,url"`
}

// AddressChanged reports whether the update touches the postal address
func (r *UpdateBusinessRequest) AddressChanged() bool {
	return r.Address != nil || r.City != nil || r.PostalCode != nil
}

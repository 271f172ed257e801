package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification request statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// VerificationRequest is a business owner's application to become verified
type VerificationRequest struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	BusinessID   uuid.UUID     `db:"business_id" json:"business_id"`
	SubmittedBy  uuid.UUID     `db:"submitted_by" json:"submitted_by"`
	SIRET        string        `db:"siret" json:"siret"`
	DocumentURLs StringArray   `db:"document_urls" json:"document_urls"`
	Message      NullString    `db:"message" json:"message"`
	Status       string        `db:"status" json:"status"`
	ReviewerID   uuid.NullUUID `db:"reviewer_id" json:"reviewer_id"`
	ReviewNotes  NullString    `db:"review_notes" json:"review_notes"`
	ReviewedAt   NullTime      `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`

	// Populated via JOINs
	BusinessName *string `db:"business_name" json:"business_name,omitempty"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalUsers           int   `db:"total_users" json:"total_users"`
	TotalBusinesses      int   `db:"total_businesses" json:"total_businesses"`
	VerifiedBusinesses   int   `db:"verified_businesses" json:"verified_businesses"`
	PendingVerifications int   `db:"pending_verifications" json:"pending_verifications"`
	ActiveBookings       int   `db:"active_bookings" json:"active_bookings"`
	OpenOrders           int   `db:"open_orders" json:"open_orders"`
	RevenueCents         int64 `db:"revenue_cents" json:"revenue_cents"`
}

// SubmitVerificationRequest asks admins to verify a business
type SubmitVerificationRequest struct {
	SIRET        string   `json:"siret" binding:"required,siret"`
	DocumentURLs []string `json:"document_urls" binding:"max=10,dive,max=500"`
	Message      string   `json:"message" binding:"max=2000"`
}

// ReviewVerificationRequest carries the admin's notes
type ReviewVerificationRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

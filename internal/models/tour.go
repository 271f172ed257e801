package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCancellationCutoffHours applies when a tour does not set its own cutoff
const DefaultCancellationCutoffHours = 24

// Tour is a visit/tasting experience offered by a business
type Tour struct {
	ID                      uuid.UUID   `db:"id" json:"id"`
	BusinessID              uuid.UUID   `db:"business_id" json:"business_id"`
	Title                   string      `db:"title" json:"title"`
	Description             NullString  `db:"description" json:"description"`
	DurationMinutes         int         `db:"duration_minutes" json:"duration_minutes"`
	PriceCents              int64       `db:"price_cents" json:"price_cents"` // per participant
	MaxGroupSize            int         `db:"max_group_size" json:"max_group_size"`
	Languages               StringArray `db:"languages" json:"languages"`
	CancellationCutoffHours int         `db:"cancellation_cutoff_hours" json:"cancellation_cutoff_hours"`
	IsActive                bool        `db:"is_active" json:"is_active"`
	CreatedAt               time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time   `db:"updated_at" json:"updated_at"`
}

// CancellationCutoff returns how long before the start customers may still cancel.
// Zero lets customers cancel up to the start.
func (t *Tour) CancellationCutoff() time.Duration {
	if t.CancellationCutoffHours <= 0 {
		return 0
	}
	return time.Duration(t.CancellationCutoffHours) * time.Hour
}

// TourScheduleStatus is the lifecycle of a scheduled slot
type TourScheduleStatus string

const (
	ScheduleStatusScheduled TourScheduleStatus = "scheduled"
	ScheduleStatusCancelled TourScheduleStatus = "cancelled"
	ScheduleStatusCompleted TourScheduleStatus = "completed"
)

// TourSchedule is one bookable slot of a tour
type TourSchedule struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	TourID    uuid.UUID          `db:"tour_id" json:"tour_id"`
	StartsAt  time.Time          `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time          `db:"ends_at" json:"ends_at"`
	Capacity  int                `db:"capacity" json:"capacity"`
	Status    TourScheduleStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// SlotAvailability is the computed remaining capacity of one schedule
type SlotAvailability struct {
	ScheduleID uuid.UUID          `json:"schedule_id"`
	StartsAt   time.Time          `json:"starts_at"`
	EndsAt     time.Time          `json:"ends_at"`
	Status     TourScheduleStatus `json:"status"`
	Capacity   int                `json:"capacity"`
	Booked     int                `json:"booked"`
	Remaining  int                `json:"remaining"`
	Available  bool               `json:"available"`
}

// TourBookingStatus is the lifecycle of a booking
type TourBookingStatus string

const (
	BookingStatusPending   TourBookingStatus = "pending"
	BookingStatusConfirmed TourBookingStatus = "confirmed"
	BookingStatusCancelled TourBookingStatus = "cancelled"
	BookingStatusCompleted TourBookingStatus = "completed"
)

// IsActive reports whether the booking holds capacity
func (s TourBookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// PaymentState is shared by bookings and orders
type PaymentState string

const (
	PaymentStateUnpaid        PaymentState = "unpaid"
	PaymentStatePaid          PaymentState = "paid"
	PaymentStateFailed        PaymentState = "failed"
	PaymentStateRefundPending PaymentState = "refund_pending"
	PaymentStateRefunded      PaymentState = "refunded"
	PaymentStateNotRequired   PaymentState = "not_required"
)

// Cancellation reasons recorded by the system
const (
	ReasonCancelledByCustomer = "cancelled_by_customer"
	ReasonCancelledByBusiness = "cancelled_by_business"
	ReasonScheduleCancelled   = "schedule_cancelled"
	ReasonPaymentTimeout      = "payment_timeout"
	ReasonRefunded            = "refunded"
)

// TourBooking is a customer's reservation on a schedule
type TourBooking struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	ScheduleID         uuid.UUID         `db:"schedule_id" json:"schedule_id"`
	TourID             uuid.UUID         `db:"tour_id" json:"tour_id"`
	UserID             uuid.UUID         `db:"user_id" json:"user_id"`
	Participants       int               `db:"participants" json:"participants"`
	TotalCents         int64             `db:"total_cents" json:"total_cents"`
	Status             TourBookingStatus `db:"status" json:"status"`
	PaymentStatus      PaymentState      `db:"payment_status" json:"payment_status"`
	Notes              NullString        `db:"notes" json:"notes"`
	CancellationReason NullString        `db:"cancellation_reason" json:"cancellation_reason"`
	CancelledBy        uuid.NullUUID     `db:"cancelled_by" json:"cancelled_by"`
	CancelledAt        NullTime          `db:"cancelled_at" json:"cancelled_at"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`

	// Populated via JOINs
	StartsAt   *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	TourTitle  *string    `db:"tour_title" json:"tour_title,omitempty"`
	BusinessID *uuid.UUID `db:"business_id" json:"business_id,omitempty"`
}

// CreateTourRequest represents the request to offer a tour
type CreateTourRequest struct {
	Title                   string   `json:"title" binding:"required,max=200"`
	Description             string   `json:"description" binding:"max=5000"`
	DurationMinutes         int      `json:"duration_minutes" binding:"required,gt=0,lte=1440"`
	PriceCents              int64    `json:"price_cents" binding:"gte=0"`
	MaxGroupSize            int      `json:"max_group_size" binding:"gte=0"`
	Languages               []string `json:"languages" binding:"omitempty,dive,len=2"`
	CancellationCutoffHours *int     `json:"cancellation_cutoff_hours,omitempty" binding:"omitempty,gte=0,lte=720"` // nil means the default
}

// UpdateTourRequest represents a partial update of a tour
type UpdateTourRequest struct {
	Title                   *string  `json:"title,omitempty" binding:"omitempty,max=200"`
	Description             *string  `json:"description,omitempty" binding:"omitempty,max=5000"`
	DurationMinutes         *int     `json:"duration_minutes,omitempty" binding:"omitempty,gt=0,lte=1440"`
	PriceCents              *int64   `json:"price_cents,omitempty" binding:"omitempty,gte=0"`
	MaxGroupSize            *int     `json:"max_group_size,omitempty" binding:"omitempty,gte=0"`
	Languages               []string `json:"languages,omitempty" binding:"omitempty,dive,len=2"`
	CancellationCutoffHours *int     `json:"cancellation_cutoff_hours,omitempty" binding:"omitempty,gte=0,lte=720"`
}

// CreateScheduleRequest opens a bookable slot
type CreateScheduleRequest struct {
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required,gtfield=StartsAt"`
	Capacity int       `json:"capacity" binding:"required,gt=0,lte=1000"`
}

// CreateTourBookingRequest reserves seats on a schedule
type CreateTourBookingRequest struct {
	ScheduleID   uuid.UUID `json:"schedule_id" binding:"required"`
	Participants int       `json:"participants" binding:"required,min=1"`
	Notes        string    `json:"notes" binding:"max=1000"`
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BookingCancellation is the outcome of cancelling a booking
type BookingCancellation struct {
	Booking     *TourBooking `json:"booking"`
	RefundError string       `json:"refund_error,omitempty"`
}

// ScheduleCancellation is the outcome of cancelling a schedule
type ScheduleCancellation struct {
	ScheduleID      uuid.UUID         `json:"schedule_id"`
	CancelledCount  int               `json:"cancelled_bookings"`
	RefundRequested int               `json:"refunds_requested"`
	RefundErrors    map[string]string `json:"refund_errors,omitempty"` // booking id -> error
}

package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

// BookingService handles tour reservations and their cancellation
type BookingService struct {
	bookings BookingStore
	tours    *TourService
	refunds  *refunder
	now      func() time.Time
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookings BookingStore,
	tours *TourService,
	payments PaymentStore,
	gateway payment.Gateway,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		refunds:  &refunder{payments: payments, gateway: gateway, logger: logger},
		now:      time.Now,
		logger:   logger,
	}
}

// Create reserves seats for the actor. Capacity is enforced under a row lock
// by the store.
func (s *BookingService) Create(actor Actor, req *models.CreateTourBookingRequest) (*models.TourBooking, error) {
	if req.Participants < 1 {
		return nil, models.NewValidationError("participants", "must be at least 1")
	}

	booking, err := s.bookings.CreateBooking(database.NewBooking{
		ScheduleID:   req.ScheduleID,
		UserID:       actor.UserID,
		Participants: req.Participants,
		Notes:        strings.TrimSpace(req.Notes),
		Now:          s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"schedule_id":  booking.ScheduleID,
		"user_id":      actor.UserID,
		"participants": booking.Participants,
		"status":       booking.Status,
	}).Info("Tour booking created")

	return booking, nil
}

// Get returns a booking visible to its customer, the tour's business owner or an admin
func (s *BookingService) Get(actor Actor, id uuid.UUID) (*models.TourBooking, error) {
	booking, err := requireFound(s.bookings.GetByID(id))
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		manager, err := s.manages(actor, booking)
		if err != nil {
			return nil, err
		}
		if !manager {
			return nil, models.ErrForbidden
		}
	}
	return booking, nil
}

// ListMine returns the actor's bookings
func (s *BookingService) ListMine(actor Actor) ([]*models.TourBooking, error) {
	return s.bookings.ListByUser(actor.UserID)
}

// ListForBusiness returns bookings on a business's tours
func (s *BookingService) ListForBusiness(actor Actor, businessID uuid.UUID, status string) ([]*models.TourBooking, error) {
	if _, err := s.tours.businesses.RequireOwner(actor, businessID); err != nil {
		return nil, err
	}
	return s.bookings.ListByBusiness(businessID, status)
}

// Cancel cancels an active booking. Customers are bound by the tour's
// cancellation cutoff; owners and admins are not. Paid bookings are refunded
// after the cancellation is committed and a refund failure does not undo it.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.BookingCancellation, error) {
	booking, err := requireFound(s.bookings.GetByID(id))
	if err != nil {
		return nil, err
	}

	manager, err := s.manages(actor, booking)
	if err != nil {
		return nil, err
	}
	customer := booking.UserID == actor.UserID
	if !customer && !manager {
		return nil, models.ErrForbidden
	}
	if !booking.Status.IsActive() {
		return nil, models.ErrInvalidStatus
	}

	if !manager {
		t, err := requireFound(s.tours.tours.GetTour(booking.TourID))
		if err != nil {
			return nil, err
		}
		if booking.StartsAt != nil && s.now().After(booking.StartsAt.Add(-t.CancellationCutoff())) {
			return nil, models.ErrCancellationWindowPassed
		}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = models.ReasonCancelledByCustomer
		if manager && !customer {
			reason = models.ReasonCancelledByBusiness
		}
	}

	cancelled, err := s.bookings.CancelBooking(id, actor.UserID, reason)
	if err != nil {
		return nil, err
	}
	cancelled.StartsAt, cancelled.TourTitle, cancelled.BusinessID = booking.StartsAt, booking.TourTitle, booking.BusinessID

	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"actor_id":   actor.UserID,
		"reason":     reason,
	}).Info("Tour booking cancelled")

	result := &models.BookingCancellation{Booking: cancelled}
	if cancelled.PaymentStatus == models.PaymentStateRefundPending {
		result.RefundError = refundError(s.refundBooking(ctx, cancelled.ID))
	}

	return result, nil
}

// CancelSchedule cancels a slot and all its active bookings, then refunds the paid ones
func (s *BookingService) CancelSchedule(ctx context.Context, actor Actor, scheduleID uuid.UUID) (*models.ScheduleCancellation, error) {
	if _, _, err := s.tours.scheduleOwner(actor, scheduleID); err != nil {
		return nil, err
	}

	cancelled, err := s.bookings.CancelSchedule(scheduleID, actor.UserID)
	if err != nil {
		return nil, err
	}

	result := &models.ScheduleCancellation{
		ScheduleID:     scheduleID,
		CancelledCount: len(cancelled),
	}
	for _, b := range cancelled {
		if b.PaymentStatus != models.PaymentStateRefundPending {
			continue
		}
		result.RefundRequested++
		if err := s.refundBooking(ctx, b.ID); err != nil {
			if result.RefundErrors == nil {
				result.RefundErrors = map[string]string{}
			}
			result.RefundErrors[b.ID.String()] = err.Error()
		}
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id":        scheduleID,
		"actor_id":           actor.UserID,
		"cancelled_bookings": result.CancelledCount,
		"refunds_requested":  result.RefundRequested,
	}).Info("Tour schedule cancelled")

	return result, nil
}

func (s *BookingService) refundBooking(ctx context.Context, bookingID uuid.UUID) error {
	p, err := s.refunds.payments.GetSucceededForBooking(bookingID)
	if err != nil {
		return err
	}
	if p == nil {
		s.logger.WithField("booking_id", bookingID).Warn("No succeeded payment found for refund")
		return nil
	}
	return s.refunds.refund(ctx, p)
}

// manages reports whether the actor is an admin or owns the booking's business
func (s *BookingService) manages(actor Actor, booking *models.TourBooking) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if booking.BusinessID == nil {
		return false, nil
	}
	b, err := s.tours.businesses.businesses.GetByID(*booking.BusinessID)
	if err != nil {
		return false, err
	}
	return b != nil && b.OwnerID == actor.UserID, nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// The interfaces below are satisfied by the repositories in internal/database.
// Services depend on them so they can be exercised without PostgreSQL.

// UserStore persists accounts
type UserStore interface {
	CreateUser(email, passwordHash, firstName, lastName, phone string, roles []string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
	UpdateProfile(id uuid.UUID, firstName, lastName, phone string) error
	UpdatePassword(id uuid.UUID, passwordHash string) error
	UpdateLastLogin(id uuid.UUID) error
	UpdateUserStatus(id uuid.UUID, status string) error
	AddUserRole(id uuid.UUID, role string) error
	ListUsers(role string, limit, offset int) ([]*models.User, error)
	CountUsers(role string) (int, error)
}

// TokenStore persists hashed refresh tokens
type TokenStore interface {
	StoreRefreshToken(userID uuid.UUID, token string, device database.DeviceInfo, expiresAt time.Time) error
	GetRefreshToken(token string) (*models.RefreshToken, error)
	RevokeToken(token string) error
	RevokeAllUserTokens(userID uuid.UUID) error
	ListActiveForUser(userID uuid.UUID) ([]*models.RefreshToken, error)
	RevokeSession(userID, sessionID uuid.UUID) error
}

// BusinessStore persists map listings
type BusinessStore interface {
	Create(b *models.Business) error
	GetByID(id uuid.UUID) (*models.Business, error)
	List(f models.BusinessFilter) ([]*models.Business, error)
	ListByOwner(ownerID uuid.UUID) ([]*models.Business, error)
	Update(b *models.Business) error
	Deactivate(id uuid.UUID) error
	AddImage(id uuid.UUID, url string) error
}

// InventoryStore persists shop inventory
type InventoryStore interface {
	Create(item *models.ShopInventory) error
	GetByID(id uuid.UUID) (*models.ShopInventory, error)
	ListByBusiness(businessID uuid.UUID, availableOnly bool) ([]*models.ShopInventory, error)
	Update(item *models.ShopInventory) error
	Delete(id uuid.UUID) error
	AdjustStock(id uuid.UUID, delta int) (int, error)
}

// FarmBatchStore persists batches and aging logs
type FarmBatchStore interface {
	Create(batch *models.FarmBatch) error
	GetByID(id uuid.UUID) (*models.FarmBatch, error)
	ListByBusiness(businessID uuid.UUID, status string) ([]*models.FarmBatch, error)
	Update(batch *models.FarmBatch) error
	AddAgingLog(entry *models.AgingLog) error
	ListAgingLogs(batchID uuid.UUID) ([]*models.AgingLog, error)
}

// TourStore persists tours and schedules
type TourStore interface {
	CreateTour(t *models.Tour) error
	GetTour(id uuid.UUID) (*models.Tour, error)
	ListTours(businessID uuid.NullUUID, limit, offset int) ([]*models.Tour, error)
	UpdateTour(t *models.Tour) error
	DeactivateTour(id uuid.UUID) error
	CreateSchedule(s *models.TourSchedule) error
	GetSchedule(id uuid.UUID) (*models.TourSchedule, error)
	ListSchedules(tourID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.TourSchedule, error)
	BookedParticipants(scheduleIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// BookingStore persists tour bookings
type BookingStore interface {
	CreateBooking(in database.NewBooking) (*models.TourBooking, error)
	GetByID(id uuid.UUID) (*models.TourBooking, error)
	ListByUser(userID uuid.UUID) ([]*models.TourBooking, error)
	ListByBusiness(businessID uuid.UUID, status string) ([]*models.TourBooking, error)
	CancelBooking(id, actorID uuid.UUID, reason string) (*models.TourBooking, error)
	CancelSchedule(scheduleID, actorID uuid.UUID) ([]*models.TourBooking, error)
	ExpireUnpaid(createdBefore time.Time) (int64, error)
	CompletePastSchedules(now time.Time) (database.CompletionResult, error)
}

// OrderStore persists shop orders
type OrderStore interface {
	CreateOrder(in database.NewOrder) (*models.Order, error)
	GetByID(id uuid.UUID) (*models.Order, error)
	ListByUser(userID uuid.UUID) ([]*models.Order, error)
	ListByBusiness(businessID uuid.UUID, status string) ([]*models.Order, error)
	CancelOrder(id uuid.UUID, reason string, allowed []models.OrderStatus) (*models.Order, error)
	UpdateStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error)
	ExpireUnpaid(createdBefore time.Time) (int64, error)
}

// PaymentStore persists payments and applies provider events
type PaymentStore interface {
	Create(p *models.Payment) error
	GetByID(id uuid.UUID) (*models.Payment, error)
	GetSucceededForOrder(orderID uuid.UUID) (*models.Payment, error)
	GetSucceededForBooking(bookingID uuid.UUID) (*models.Payment, error)
	MarkRefundPending(id uuid.UUID) error
	ApplySucceeded(providerPaymentID string, paidAt time.Time) (*database.WebhookOutcome, error)
	ApplyFailed(providerPaymentID, message string) (*database.WebhookOutcome, error)
	ApplyRefund(providerPaymentID string, amountRefunded int64) (*database.WebhookOutcome, error)
}

// PaymentEventLog is the webhook event ledger
type PaymentEventLog interface {
	Record(ctx context.Context, ev *models.PaymentEvent) error
	IsProcessed(ctx context.Context, providerEventID string) (bool, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentEvent, error)
}

// PassportStore persists passport stamps
type PassportStore interface {
	AddStamp(stamp *models.PassportStamp) error
	ListByUser(userID uuid.UUID) ([]*models.PassportStamp, error)
	Summary(userID uuid.UUID) (*models.PassportSummary, error)
	DeleteStamp(id, userID uuid.UUID) error
}

// VerificationStore persists verification requests
type VerificationStore interface {
	Submit(req *models.VerificationRequest) error
	GetByID(id uuid.UUID) (*models.VerificationRequest, error)
	ListByBusiness(businessID uuid.UUID) ([]*models.VerificationRequest, error)
	ListByStatus(status string, limit, offset int) ([]*models.VerificationRequest, error)
	Review(id, reviewerID uuid.UUID, approve bool, notes string) (*models.VerificationRequest, error)
}

// StatsStore computes the admin dashboard
type StatsStore interface {
	Dashboard() (*models.DashboardStats, error)
}

package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/geocode"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

var errStore = errors.New("store unavailable")

// ============================================================================
// BUSINESSES
// ============================================================================

type fakeBusinessStore struct {
	items  map[uuid.UUID]*models.Business
	images map[uuid.UUID][]string
}

func newFakeBusinessStore(bs ...*models.Business) *fakeBusinessStore {
	s := &fakeBusinessStore{items: map[uuid.UUID]*models.Business{}, images: map[uuid.UUID][]string{}}
	for _, b := range bs {
		s.items[b.ID] = b
	}
	return s
}

func (s *fakeBusinessStore) Create(b *models.Business) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.VerificationStatus = models.VerificationUnverified
	b.IsActive = true
	s.items[b.ID] = b
	return nil
}

func (s *fakeBusinessStore) GetByID(id uuid.UUID) (*models.Business, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBusinessStore) List(f models.BusinessFilter) ([]*models.Business, error) {
	out := []*models.Business{}
	for _, b := range s.items {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBusinessStore) ListByOwner(ownerID uuid.UUID) ([]*models.Business, error) {
	out := []*models.Business{}
	for _, b := range s.items {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBusinessStore) Update(b *models.Business) error {
	if _, ok := s.items[b.ID]; !ok {
		return models.ErrNotFound
	}
	s.items[b.ID] = b
	return nil
}

func (s *fakeBusinessStore) Deactivate(id uuid.UUID) error {
	b, ok := s.items[id]
	if !ok {
		return models.ErrNotFound
	}
	b.IsActive = false
	return nil
}

func (s *fakeBusinessStore) AddImage(id uuid.UUID, url string) error {
	s.images[id] = append(s.images[id], url)
	return nil
}

func newBusiness(owner uuid.UUID, typ models.BusinessType, verified bool) *models.Business {
	b := &models.Business{
		ID:                 uuid.New(),
		OwnerID:            owner,
		Name:               "Fromagerie Test",
		BusinessType:       typ,
		Address:            "1 rue de la Paix",
		City:               "Paris",
		PostalCode:         "75002",
		VerificationStatus: models.VerificationUnverified,
		IsActive:           true,
	}
	if verified {
		b.VerificationStatus = models.VerificationVerified
	}
	return b
}

type fakeGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address, postcode, city string) (*geocode.Result, error) {
	g.calls++
	return g.result, g.err
}

type memObjectStore struct {
	objects map[string][]byte
}

func (m *memObjectStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = buf.Bytes()
	return "/uploads/" + key, nil
}

func (m *memObjectStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

// ============================================================================
// TOURS AND BOOKINGS
// ============================================================================

type fakeTourStore struct {
	tours     map[uuid.UUID]*models.Tour
	schedules map[uuid.UUID]*models.TourSchedule
	booked    map[uuid.UUID]int
	listArgs  []time.Time
}

func newFakeTourStore() *fakeTourStore {
	return &fakeTourStore{
		tours:     map[uuid.UUID]*models.Tour{},
		schedules: map[uuid.UUID]*models.TourSchedule{},
		booked:    map[uuid.UUID]int{},
	}
}

func (s *fakeTourStore) CreateTour(t *models.Tour) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.IsActive = true
	s.tours[t.ID] = t
	return nil
}

func (s *fakeTourStore) GetTour(id uuid.UUID) (*models.Tour, error) {
	t, ok := s.tours[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTourStore) ListTours(businessID uuid.NullUUID, limit, offset int) ([]*models.Tour, error) {
	out := []*models.Tour{}
	for _, t := range s.tours {
		if t.IsActive && (!businessID.Valid || t.BusinessID == businessID.UUID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTourStore) UpdateTour(t *models.Tour) error {
	s.tours[t.ID] = t
	return nil
}

func (s *fakeTourStore) DeactivateTour(id uuid.UUID) error {
	t, ok := s.tours[id]
	if !ok {
		return models.ErrNotFound
	}
	t.IsActive = false
	return nil
}

func (s *fakeTourStore) CreateSchedule(sc *models.TourSchedule) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	sc.Status = models.ScheduleStatusScheduled
	s.schedules[sc.ID] = sc
	return nil
}

func (s *fakeTourStore) GetSchedule(id uuid.UUID) (*models.TourSchedule, error) {
	sc, ok := s.schedules[id]
	if !ok {
		return nil, nil
	}
	cp := *sc
	return &cp, nil
}

func (s *fakeTourStore) ListSchedules(tourID uuid.UUID, from, to time.Time, includeCancelled bool) ([]models.TourSchedule, error) {
	s.listArgs = []time.Time{from, to}
	out := []models.TourSchedule{}
	for _, sc := range s.schedules {
		if sc.TourID != tourID || sc.StartsAt.Before(from) || !sc.StartsAt.Before(to) {
			continue
		}
		if !includeCancelled && sc.Status == models.ScheduleStatusCancelled {
			continue
		}
		out = append(out, *sc)
	}
	return out, nil
}

func (s *fakeTourStore) BookedParticipants(ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for _, id := range ids {
		if n, ok := s.booked[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type fakeBookingStore struct {
	bookings    map[uuid.UUID]*models.TourBooking
	createErr   error
	lastNew     database.NewBooking
	cancelled   []uuid.UUID
	scheduleOut []*models.TourBooking
	expired     int64
	expireCut   time.Time
	completion  database.CompletionResult
}

func newFakeBookingStore(bs ...*models.TourBooking) *fakeBookingStore {
	s := &fakeBookingStore{bookings: map[uuid.UUID]*models.TourBooking{}}
	for _, b := range bs {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *fakeBookingStore) CreateBooking(in database.NewBooking) (*models.TourBooking, error) {
	s.lastNew = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	b := &models.TourBooking{
		ID:            uuid.New(),
		ScheduleID:    in.ScheduleID,
		UserID:        in.UserID,
		Participants:  in.Participants,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStateUnpaid,
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *fakeBookingStore) GetByID(id uuid.UUID) (*models.TourBooking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBookingStore) ListByUser(userID uuid.UUID) ([]*models.TourBooking, error) {
	out := []*models.TourBooking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) ListByBusiness(businessID uuid.UUID, status string) ([]*models.TourBooking, error) {
	out := []*models.TourBooking{}
	for _, b := range s.bookings {
		if b.BusinessID != nil && *b.BusinessID == businessID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) CancelBooking(id, actorID uuid.UUID, reason string) (*models.TourBooking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !b.Status.IsActive() {
		return nil, models.ErrInvalidStatus
	}
	b.Status = models.BookingStatusCancelled
	b.CancellationReason = models.NewNullString(reason)
	b.CancelledBy = uuid.NullUUID{UUID: actorID, Valid: true}
	if b.PaymentStatus == models.PaymentStatePaid {
		b.PaymentStatus = models.PaymentStateRefundPending
	}
	s.cancelled = append(s.cancelled, id)
	return &models.TourBooking{
		ID:                 b.ID,
		ScheduleID:         b.ScheduleID,
		TourID:             b.TourID,
		UserID:             b.UserID,
		Participants:       b.Participants,
		TotalCents:         b.TotalCents,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
	}, nil
}

func (s *fakeBookingStore) CancelSchedule(scheduleID, actorID uuid.UUID) ([]*models.TourBooking, error) {
	return s.scheduleOut, nil
}

func (s *fakeBookingStore) ExpireUnpaid(createdBefore time.Time) (int64, error) {
	s.expireCut = createdBefore
	return s.expired, nil
}

func (s *fakeBookingStore) CompletePastSchedules(now time.Time) (database.CompletionResult, error) {
	return s.completion, nil
}

// ============================================================================
// ORDERS AND PAYMENTS
// ============================================================================

type fakeOrderStore struct {
	orders    map[uuid.UUID]*models.Order
	lastNew   database.NewOrder
	allowed   []models.OrderStatus
	expired   int64
	expireCut time.Time
}

func newFakeOrderStore(os ...*models.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range os {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeOrderStore) CreateOrder(in database.NewOrder) (*models.Order, error) {
	s.lastNew = in
	o := &models.Order{
		ID:            uuid.New(),
		UserID:        in.UserID,
		BusinessID:    in.BusinessID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStateUnpaid,
		Fulfillment:   in.Fulfillment,
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *fakeOrderStore) GetByID(id uuid.UUID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) ListByUser(userID uuid.UUID) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

func (s *fakeOrderStore) ListByBusiness(businessID uuid.UUID, status string) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

func (s *fakeOrderStore) CancelOrder(id uuid.UUID, reason string, allowed []models.OrderStatus) (*models.Order, error) {
	s.allowed = allowed
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	permitted := false
	for _, st := range allowed {
		if st == o.Status {
			permitted = true
		}
	}
	if !permitted {
		return nil, models.ErrInvalidStatus
	}
	o.Status = models.OrderStatusCancelled
	o.CancellationReason = models.NewNullString(reason)
	if o.PaymentStatus == models.PaymentStatePaid {
		o.PaymentStatus = models.PaymentStateRefundPending
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) UpdateStatus(id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.CanTransition(o.Fulfillment, o.Status, to) {
		return nil, models.ErrInvalidStatus
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) ExpireUnpaid(createdBefore time.Time) (int64, error) {
	s.expireCut = createdBefore
	return s.expired, nil
}

type fakePaymentStore struct {
	payments      map[uuid.UUID]*models.Payment
	refundPending []uuid.UUID
	outcome       *database.WebhookOutcome
	applyErr      error
	applied       []string
}

func newFakePaymentStore(ps ...*models.Payment) *fakePaymentStore {
	s := &fakePaymentStore{payments: map[uuid.UUID]*models.Payment{}}
	for _, p := range ps {
		s.payments[p.ID] = p
	}
	return s
}

func (s *fakePaymentStore) Create(p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.payments[p.ID] = p
	return nil
}

func (s *fakePaymentStore) GetByID(id uuid.UUID) (*models.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (s *fakePaymentStore) GetSucceededForOrder(orderID uuid.UUID) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.OrderID.Valid && p.OrderID.UUID == orderID && p.Status == models.PaymentStatusSucceeded {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) GetSucceededForBooking(bookingID uuid.UUID) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.BookingID.Valid && p.BookingID.UUID == bookingID && p.Status == models.PaymentStatusSucceeded {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) MarkRefundPending(id uuid.UUID) error {
	s.refundPending = append(s.refundPending, id)
	if p, ok := s.payments[id]; ok {
		p.Status = models.PaymentStatusRefundPending
	}
	return nil
}

func (s *fakePaymentStore) ApplySucceeded(providerPaymentID string, paidAt time.Time) (*database.WebhookOutcome, error) {
	s.applied = append(s.applied, "succeeded:"+providerPaymentID)
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return s.outcome, nil
}

func (s *fakePaymentStore) ApplyFailed(providerPaymentID, message string) (*database.WebhookOutcome, error) {
	s.applied = append(s.applied, "failed:"+providerPaymentID)
	return s.outcome, nil
}

func (s *fakePaymentStore) ApplyRefund(providerPaymentID string, amountRefunded int64) (*database.WebhookOutcome, error) {
	s.applied = append(s.applied, "refund:"+providerPaymentID)
	return s.outcome, nil
}

type fakeEventLog struct {
	events    map[string]*models.PaymentEvent
	recordErr error
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{events: map[string]*models.PaymentEvent{}}
}

func (l *fakeEventLog) Record(ctx context.Context, ev *models.PaymentEvent) error {
	if l.recordErr != nil {
		return l.recordErr
	}
	if prev, ok := l.events[ev.ProviderEventID]; ok {
		ev.Attempts = prev.Attempts + 1
	} else {
		ev.Attempts = 1
	}
	l.events[ev.ProviderEventID] = ev
	return nil
}

func (l *fakeEventLog) IsProcessed(ctx context.Context, providerEventID string) (bool, error) {
	ev, ok := l.events[providerEventID]
	return ok && ev.Outcome != models.EventOutcomeFailed, nil
}

func (l *fakeEventLog) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.PaymentEvent, error) {
	var out []*models.PaymentEvent
	for _, ev := range l.events {
		if ev.PaymentID.Valid && ev.PaymentID.UUID == paymentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	intents   []payment.IntentRequest
	refunded  []string
	intentErr error
	refundErr error
	event     *payment.Event
	parseErr  error
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	g.intents = append(g.intents, req)
	return &payment.Intent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret_abc", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentIntentID string) (*payment.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunded = append(g.refunded, paymentIntentID)
	return &payment.Refund{ID: "re_test_1", Status: "pending"}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signatureHeader string) (*payment.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

// ============================================================================
// USERS AND TOKENS
// ============================================================================

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserStore(us ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[uuid.UUID]*models.User{}}
	for _, u := range us {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) CreateUser(email, passwordHash, firstName, lastName, phone string, roles []string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return nil, models.ErrEmailTaken
		}
	}
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    models.NewNullString(firstName),
		LastName:     models.NewNullString(lastName),
		Phone:        models.NewNullString(phone),
		Roles:        roles,
		Status:       models.UserStatusActive,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetUserByID(id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (s *fakeUserStore) UpdateProfile(id uuid.UUID, firstName, lastName, phone string) error {
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.FirstName = models.NewNullString(firstName)
	u.LastName = models.NewNullString(lastName)
	u.Phone = models.NewNullString(phone)
	return nil
}

func (s *fakeUserStore) UpdatePassword(id uuid.UUID, passwordHash string) error {
	s.users[id].PasswordHash = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(id uuid.UUID) error { return nil }

func (s *fakeUserStore) UpdateUserStatus(id uuid.UUID, status string) error {
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Status = status
	return nil
}

func (s *fakeUserStore) AddUserRole(id uuid.UUID, role string) error {
	u := s.users[id]
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

func (s *fakeUserStore) ListUsers(role string, limit, offset int) ([]*models.User, error) {
	out := []*models.User{}
	for _, u := range s.users {
		if role == "" || u.HasRole(role) {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return []*models.User{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeUserStore) CountUsers(role string) (int, error) {
	n := 0
	for _, u := range s.users {
		if role == "" || u.HasRole(role) {
			n++
		}
	}
	return n, nil
}

type fakeTokenStore struct {
	tokens     map[string]*models.RefreshToken
	revokedAll []uuid.UUID
	devices    []database.DeviceInfo
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]*models.RefreshToken{}}
}

func (s *fakeTokenStore) StoreRefreshToken(userID uuid.UUID, token string, device database.DeviceInfo, expiresAt time.Time) error {
	s.tokens[token] = &models.RefreshToken{ID: uuid.New(), UserID: userID, ExpiresAt: expiresAt}
	s.devices = append(s.devices, device)
	return nil
}

func (s *fakeTokenStore) GetRefreshToken(token string) (*models.RefreshToken, error) {
	t, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (s *fakeTokenStore) RevokeToken(token string) error {
	t, ok := s.tokens[token]
	if !ok || t.Revoked {
		return models.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (s *fakeTokenStore) RevokeAllUserTokens(userID uuid.UUID) error {
	s.revokedAll = append(s.revokedAll, userID)
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (s *fakeTokenStore) ListActiveForUser(userID uuid.UUID) ([]*models.RefreshToken, error) {
	out := []*models.RefreshToken{}
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked && t.ExpiresAt.After(time.Now()) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTokenStore) RevokeSession(userID, sessionID uuid.UUID) error {
	for _, t := range s.tokens {
		if t.ID == sessionID && t.UserID == userID && !t.Revoked {
			t.Revoked = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeTokenStore) CleanupExpiredTokens() (int64, error) { return 0, nil }

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFarmBatchStore struct {
	batches map[uuid.UUID]*models.FarmBatch
	logs    map[uuid.UUID][]*models.AgingLog
}

func newFakeFarmBatchStore(bs ...*models.FarmBatch) *fakeFarmBatchStore {
	s := &fakeFarmBatchStore{
		batches: map[uuid.UUID]*models.FarmBatch{},
		logs:    map[uuid.UUID][]*models.AgingLog{},
	}
	for _, b := range bs {
		s.batches[b.ID] = b
	}
	return s
}

func (s *fakeFarmBatchStore) Create(batch *models.FarmBatch) error {
	batch.ID = uuid.New()
	s.batches[batch.ID] = batch
	return nil
}

func (s *fakeFarmBatchStore) GetByID(id uuid.UUID) (*models.FarmBatch, error) {
	return s.batches[id], nil
}

func (s *fakeFarmBatchStore) ListByBusiness(businessID uuid.UUID, status string) ([]*models.FarmBatch, error) {
	out := []*models.FarmBatch{}
	for _, b := range s.batches {
		if b.BusinessID == businessID && (status == "" || string(b.Status) == status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeFarmBatchStore) Update(batch *models.FarmBatch) error {
	s.batches[batch.ID] = batch
	return nil
}

func (s *fakeFarmBatchStore) AddAgingLog(entry *models.AgingLog) error {
	entry.ID = uuid.New()
	s.logs[entry.BatchID] = append(s.logs[entry.BatchID], entry)
	return nil
}

func (s *fakeFarmBatchStore) ListAgingLogs(batchID uuid.UUID) ([]*models.AgingLog, error) {
	return s.logs[batchID], nil
}

var farmNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestFarmService(b *models.Business, batches ...*models.FarmBatch) (*FarmService, *fakeFarmBatchStore) {
	logger, _ := newTestLogger()
	businesses, _ := newTestBusinessService(newFakeBusinessStore(b), nil)
	store := newFakeFarmBatchStore(batches...)
	svc := NewFarmService(store, businesses, logger)
	svc.now = func() time.Time { return farmNow }
	return svc, store
}

func batchRequest(date string) *models.CreateBatchRequest {
	return &models.CreateBatchRequest{
		BatchCode:          " B-2026-041 ",
		CheeseName:         "Tomme de Savoie",
		MilkType:           models.MilkCow,
		Quantity:           40,
		ProductionDate:     date,
		TargetRipeningDays: 60,
	}
}

func TestFarmService_CreateBatch(t *testing.T) {
	owner := Actor{UserID: uuid.New(), Roles: []string{models.RoleProducer}}
	farm := newBusiness(owner.UserID, models.BusinessTypeFarm, false)
	svc, _ := newTestFarmService(farm)

	batch, err := svc.CreateBatch(owner, farm.ID, batchRequest("2026-09-01"))
	require.NoError(t, err)
	assert.Equal(t, "B-2026-041", batch.BatchCode)
	assert.Equal(t, models.BatchStatusAging, batch.Status)
	assert.Equal(t, "2026-10-31", batch.ReadyOn().Format("2006-01-02"))
}

func TestFarmService_CreateBatch_Rejections(t *testing.T) {
	owner := Actor{UserID: uuid.New(), Roles: []string{models.RoleProducer}}

	shop := newBusiness(owner.UserID, models.BusinessTypeFromagerie, true)
	svc, _ := newTestFarmService(shop)
	_, err := svc.CreateBatch(owner, shop.ID, batchRequest("2026-09-01"))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "business_type", verr.Field)

	farm := newBusiness(owner.UserID, models.BusinessTypeAffineur, false)
	svc, _ = newTestFarmService(farm)
	_, err = svc.CreateBatch(owner, farm.ID, batchRequest("2026-11-01"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "production_date", verr.Field)

	_, err = svc.CreateBatch(Actor{UserID: uuid.New()}, farm.ID, batchRequest("2026-09-01"))
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestFarmService_AgingLogs(t *testing.T) {
	owner := Actor{UserID: uuid.New(), Roles: []string{models.RoleProducer}}
	farm := newBusiness(owner.UserID, models.BusinessTypeFarm, false)
	batch := &models.FarmBatch{
		ID:                 uuid.New(),
		BusinessID:         farm.ID,
		ProductionDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TargetRipeningDays: 60,
		Status:             models.BatchStatusAging,
	}
	svc, _ := newTestFarmService(farm, batch)

	temp := 11.5
	entry, err := svc.AddAgingLog(owner, batch.ID, &models.CreateAgingLogRequest{Action: models.AgingTurned, TemperatureC: &temp})
	require.NoError(t, err)
	assert.Equal(t, farmNow, entry.LoggedAt)
	assert.Equal(t, owner.UserID, entry.LoggedBy)

	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.AddAgingLog(owner, batch.ID, &models.CreateAgingLogRequest{Action: models.AgingBrushed, LoggedAt: &early})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "logged_at", verr.Field)

	detail, err := svc.GetBatch(owner, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 44, detail.AgeDays)
	assert.Equal(t, "2026-10-31", detail.ReadyOn)
	assert.Len(t, detail.AgingLogs, 1)
}

func TestFarmService_AgingLogs_ClosedBatch(t *testing.T) {
	owner := Actor{UserID: uuid.New(), Roles: []string{models.RoleProducer}}
	farm := newBusiness(owner.UserID, models.BusinessTypeFarm, false)
	batch := &models.FarmBatch{ID: uuid.New(), BusinessID: farm.ID, Status: models.BatchStatusAging}
	svc, _ := newTestFarmService(farm, batch)

	discarded := models.BatchStatusDiscarded
	_, err := svc.UpdateBatch(owner, batch.ID, &models.UpdateBatchRequest{Status: &discarded})
	require.NoError(t, err)

	_, err = svc.AddAgingLog(owner, batch.ID, &models.CreateAgingLogRequest{Action: models.AgingInspected})
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
}

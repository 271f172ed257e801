package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePassportStore struct {
	stamps map[uuid.UUID]*models.PassportStamp
}

func newFakePassportStore() *fakePassportStore {
	return &fakePassportStore{stamps: map[uuid.UUID]*models.PassportStamp{}}
}

func (s *fakePassportStore) AddStamp(stamp *models.PassportStamp) error {
	for _, existing := range s.stamps {
		if existing.UserID == stamp.UserID && existing.BusinessID == stamp.BusinessID && existing.CheeseName == stamp.CheeseName {
			stamp.ID = existing.ID
		}
	}
	if stamp.ID == uuid.Nil {
		stamp.ID = uuid.New()
	}
	s.stamps[stamp.ID] = stamp
	return nil
}

func (s *fakePassportStore) ListByUser(userID uuid.UUID) ([]*models.PassportStamp, error) {
	out := []*models.PassportStamp{}
	for _, st := range s.stamps {
		if st.UserID == userID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *fakePassportStore) Summary(userID uuid.UUID) (*models.PassportSummary, error) {
	businesses := map[uuid.UUID]bool{}
	cheeses := map[string]bool{}
	summary := &models.PassportSummary{}
	for _, st := range s.stamps {
		if st.UserID != userID {
			continue
		}
		summary.TotalStamps++
		businesses[st.BusinessID] = true
		cheeses[st.CheeseName] = true
	}
	summary.DistinctBusinesses = len(businesses)
	summary.DistinctCheeses = len(cheeses)
	return summary, nil
}

func (s *fakePassportStore) DeleteStamp(id, userID uuid.UUID) error {
	st, ok := s.stamps[id]
	if !ok || st.UserID != userID {
		return models.ErrNotFound
	}
	delete(s.stamps, id)
	return nil
}

func TestPassportService(t *testing.T) {
	logger, _ := newTestLogger()
	business := newBusiness(uuid.New(), models.BusinessTypeFromagerie, true)
	store := newFakePassportStore()
	svc := NewPassportService(store, NewBusinessService(newFakeBusinessStore(business), nil, nil, logger))
	consumer := Actor{UserID: uuid.New(), Roles: []string{models.RoleConsumer}}

	rating := 5
	stamp, err := svc.AddStamp(consumer, &models.CreateStampRequest{
		BusinessID: business.ID,
		CheeseName: " Comté 24 mois ",
		Rating:     &rating,
	})
	require.NoError(t, err)
	assert.Equal(t, "Comté 24 mois", stamp.CheeseName)
	assert.Equal(t, models.StampSourceManual, stamp.Source)
	assert.False(t, stamp.Notes.Valid)

	_, err = svc.AddStamp(consumer, &models.CreateStampRequest{BusinessID: business.ID, CheeseName: "Comté 24 mois"})
	require.NoError(t, err)

	passport, err := svc.Get(consumer)
	require.NoError(t, err)
	assert.Equal(t, 1, passport.Summary.TotalStamps, "the same cheese at the same business is one stamp")
	assert.Len(t, passport.Stamps, 1)

	t.Run("Unknown Business", func(t *testing.T) {
		_, err := svc.AddStamp(consumer, &models.CreateStampRequest{BusinessID: uuid.New(), CheeseName: "Brie"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Rating Out Of Range", func(t *testing.T) {
		bad := 6
		_, err := svc.AddStamp(consumer, &models.CreateStampRequest{BusinessID: business.ID, CheeseName: "Brie", Rating: &bad})
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("Delete Only Own Stamp", func(t *testing.T) {
		other := Actor{UserID: uuid.New()}
		assert.ErrorIs(t, svc.DeleteStamp(other, stamp.ID), models.ErrNotFound)
		require.NoError(t, svc.DeleteStamp(consumer, stamp.ID))

		passport, err := svc.Get(consumer)
		require.NoError(t, err)
		assert.Empty(t, passport.Stamps)
	})
}

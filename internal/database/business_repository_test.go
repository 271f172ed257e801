package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var businessRowColumns = []string{
	"id", "owner_id", "name", "business_type", "description",
	"address", "city", "postal_code", "region", "latitude", "longitude",
	"phone", "email", "website", "siret", "images",
	"verification_status", "verified_at", "is_active", "created_at", "updated_at",
}

func TestListBusinesses(t *testing.T) {
	now := time.Now()

	t.Run("Filters Build Positional Args", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewBusinessRepository(sqlxDB)

		mock.ExpectQuery(`WHERE b.is_active = TRUE AND b.business_type = \$1 AND lower\(b.city\) = lower\(\$2\) AND \(b.name ILIKE \$3 OR b.description ILIKE \$3\) AND b.verification_status = \$4\s+ORDER BY b.name ASC\s+LIMIT \$5 OFFSET \$6`).
			WithArgs("farm", "Dijon", "%comté%", models.VerificationVerified, 20, 0).
			WillReturnRows(sqlmock.NewRows(businessRowColumns).AddRow(
				uuid.NewString(), uuid.NewString(), "Ferme des Granges", "farm", nil,
				"2 route de Beaune", "Dijon", "21000", "Bourgogne-Franche-Comté", 47.32, 5.04,
				nil, nil, nil, nil, "{/uploads/a.jpg}",
				"verified", now, true, now, now,
			))

		list, err := repo.List(models.BusinessFilter{
			Type: "farm", City: "Dijon", Query: "comté", VerifiedOnly: true, Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].IsVerified())
		assert.Equal(t, models.StringArray{"/uploads/a.jpg"}, list[0].Images)
		assert.Nil(t, list[0].DistanceKm)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Proximity Orders By Distance", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewBusinessRepository(sqlxDB)
		lat, lng := 45.76, 4.83

		cols := append(append([]string{}, businessRowColumns...), "distance_km")
		mock.ExpectQuery(`AS distance_km(.+)b.latitude IS NOT NULL(.+)<= \$3\s+ORDER BY distance_km ASC\s+LIMIT \$4 OFFSET \$5`).
			WithArgs(lat, lng, 25.0, 50, 10).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				uuid.NewString(), uuid.NewString(), "Mère Richard", "fromagerie", nil,
				"102 cours Lafayette", "Lyon", "69003", nil, 45.76, 4.85,
				nil, nil, nil, nil, "{}",
				"unverified", nil, true, now, now, 1.6,
			))

		list, err := repo.List(models.BusinessFilter{Latitude: &lat, Longitude: &lng, RadiusKm: 25, Limit: 50, Offset: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NotNil(t, list[0].DistanceKm)
		assert.InDelta(t, 1.6, *list[0].DistanceKm, 0.001)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeactivateBusiness(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewBusinessRepository(sqlxDB)
	id := uuid.New()

	mock.ExpectExec(`UPDATE businesses SET is_active = FALSE`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(id), models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const businessColumns = `b.id, b.owner_id, b.name, b.business_type, b.description,
		       b.address, b.city, b.postal_code, b.region, b.latitude, b.longitude,
		       b.phone, b.email, b.website, b.siret, b.images,
		       b.verification_status, b.verified_at, b.is_active, b.created_at, b.updated_at`

// haversineKm is the great-circle distance in km from ($lat, $lng) placeholders to the row.
// LEAST guards acos against rounding above 1.
const haversineKm = `(6371 * acos(LEAST(1.0,
		cos(radians(%[1]s)) * cos(radians(b.latitude)) * cos(radians(b.longitude) - radians(%[2]s))
		+ sin(radians(%[1]s)) * sin(radians(b.latitude)))))`

// BusinessRepository handles business listing database operations
type BusinessRepository struct {
	db *sqlx.DB
}

// NewBusinessRepository creates a new BusinessRepository
func NewBusinessRepository(db *sqlx.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// Create inserts a new business owned by b.OwnerID
func (r *BusinessRepository) Create(b *models.Business) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.VerificationStatus == "" {
		b.VerificationStatus = models.VerificationUnverified
	}
	b.IsActive = true

	query := `
		INSERT INTO businesses (
			id, owner_id, name, business_type, description,
			address, city, postal_code, region, latitude, longitude,
			phone, email, website, siret, images, verification_status, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query,
		b.ID, b.OwnerID, b.Name, b.BusinessType, b.Description,
		b.Address, b.City, b.PostalCode, b.Region, b.Latitude, b.Longitude,
		b.Phone, b.Email, b.Website, b.SIRET, b.Images, b.VerificationStatus, b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

// GetByID retrieves a business by ID, including inactive ones
func (r *BusinessRepository) GetByID(id uuid.UUID) (*models.Business, error) {
	var b models.Business

	query := `SELECT ` + businessColumns + ` FROM businesses b WHERE b.id = $1`

	err := r.db.Get(&b, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &b, nil
}

// List searches active businesses. With coordinates and a radius it orders by distance.
func (r *BusinessRepository) List(f models.BusinessFilter) ([]*models.Business, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "b.is_active = TRUE")
	if f.Type != "" {
		where = append(where, "b.business_type = "+arg(f.Type))
	}
	if f.City != "" {
		where = append(where, "lower(b.city) = lower("+arg(f.City)+")")
	}
	if f.Region != "" {
		where = append(where, "b.region ILIKE "+arg(f.Region))
	}
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		where = append(where, "(b.name ILIKE "+p+" OR b.description ILIKE "+p+")")
	}
	if f.VerifiedOnly {
		where = append(where, "b.verification_status = "+arg(models.VerificationVerified))
	}

	selectCols := businessColumns
	orderBy := "b.name ASC"
	if f.HasProximity() {
		dist := fmt.Sprintf(haversineKm, arg(*f.Latitude), arg(*f.Longitude))
		selectCols += ",\n\t\t       " + dist + " AS distance_km"
		where = append(where, "b.latitude IS NOT NULL AND b.longitude IS NOT NULL")
		where = append(where, dist+" <= "+arg(f.RadiusKm))
		orderBy = "distance_km ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM businesses b
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s
	`, selectCols, strings.Join(where, " AND "), orderBy, arg(f.Limit), arg(f.Offset))

	businesses := []*models.Business{}
	if err := r.db.Select(&businesses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	return businesses, nil
}

// ListByOwner returns every business owned by a user
func (r *BusinessRepository) ListByOwner(ownerID uuid.UUID) ([]*models.Business, error) {
	businesses := []*models.Business{}

	query := `SELECT ` + businessColumns + `
		FROM businesses b
		WHERE b.owner_id = $1
		ORDER BY b.created_at DESC
	`

	if err := r.db.Select(&businesses, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list owner businesses: %w", err)
	}

	return businesses, nil
}

// Update saves the editable fields of a business
func (r *BusinessRepository) Update(b *models.Business) error {
	query := `
		UPDATE businesses
		SET name = $1, business_type = $2, description = $3,
		    address = $4, city = $5, postal_code = $6, region = $7,
		    latitude = $8, longitude = $9,
		    phone = $10, email = $11, website = $12, siret = $13,
		    updated_at = $14
		WHERE id = $15
	`

	b.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		b.Name, b.BusinessType, b.Description,
		b.Address, b.City, b.PostalCode, b.Region,
		b.Latitude, b.Longitude,
		b.Phone, b.Email, b.Website, b.SIRET,
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}

	return requireAffected(result)
}

// Deactivate hides a business from listings
func (r *BusinessRepository) Deactivate(id uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE businesses SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate business: %w", err)
	}

	return requireAffected(result)
}

// AddImage appends an image URL to the business gallery
func (r *BusinessRepository) AddImage(id uuid.UUID, url string) error {
	result, err := r.db.Exec(`
		UPDATE businesses
		SET images = array_append(images, $1), updated_at = NOW()
		WHERE id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("failed to add business image: %w", err)
	}

	return requireAffected(result)
}

// requireAffected maps a zero-row update to models.ErrNotFound
func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const inventoryColumns = `id, business_id, cheese_name, milk_type, aoc, description, unit,
		       price_cents, stock_quantity, is_available, image_url, created_at, updated_at`

// InventoryRepository handles shop inventory database operations
type InventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Create inserts a new inventory item
func (r *InventoryRepository) Create(item *models.ShopInventory) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `
		INSERT INTO shop_inventory (
			id, business_id, cheese_name, milk_type, aoc, description, unit,
			price_cents, stock_quantity, is_available, image_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowx(query,
		item.ID, item.BusinessID, item.CheeseName, item.MilkType, item.AOC, item.Description, item.Unit,
		item.PriceCents, item.StockQuantity, item.IsAvailable, item.ImageURL,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

// GetByID retrieves an inventory item
func (r *InventoryRepository) GetByID(id uuid.UUID) (*models.ShopInventory, error) {
	var item models.ShopInventory

	err := r.db.Get(&item, `SELECT `+inventoryColumns+` FROM shop_inventory WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}

	return &item, nil
}

// ListByBusiness returns a shop's catalogue. availableOnly hides items not for sale.
func (r *InventoryRepository) ListByBusiness(businessID uuid.UUID, availableOnly bool) ([]*models.ShopInventory, error) {
	items := []*models.ShopInventory{}

	query := `SELECT ` + inventoryColumns + `
		FROM shop_inventory
		WHERE business_id = $1
		  AND ($2 = FALSE OR is_available = TRUE)
		ORDER BY cheese_name ASC
	`

	if err := r.db.Select(&items, query, businessID, availableOnly); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	return items, nil
}

// Update saves the editable fields of an inventory item
func (r *InventoryRepository) Update(item *models.ShopInventory) error {
	query := `
		UPDATE shop_inventory
		SET cheese_name = $1, milk_type = $2, aoc = $3, description = $4, unit = $5,
		    price_cents = $6, is_available = $7, image_url = $8, updated_at = $9
		WHERE id = $10
	`

	item.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		item.CheeseName, item.MilkType, item.AOC, item.Description, item.Unit,
		item.PriceCents, item.IsAvailable, item.ImageURL, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}

	return requireAffected(result)
}

// Delete removes an inventory item. Items referenced by orders are hidden instead.
func (r *InventoryRepository) Delete(id uuid.UUID) error {
	var referenced bool
	if err := r.db.Get(&referenced, `SELECT EXISTS (SELECT 1 FROM order_items WHERE inventory_id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check inventory references: %w", err)
	}

	var (
		result sql.Result
		err    error
	)
	if referenced {
		result, err = r.db.Exec(`UPDATE shop_inventory SET is_available = FALSE, updated_at = NOW() WHERE id = $1`, id)
	} else {
		result, err = r.db.Exec(`DELETE FROM shop_inventory WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}

	return requireAffected(result)
}

// AdjustStock adds delta (possibly negative) to the stock and returns the new quantity.
// The stock never goes below zero.
func (r *InventoryRepository) AdjustStock(id uuid.UUID, delta int) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.Get(&current, `SELECT stock_quantity FROM shop_inventory WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("failed to lock inventory item: %w", err)
	}

	next := current + delta
	if next < 0 {
		return 0, models.NewValidationError("delta", fmt.Sprintf("stock cannot go below zero (current %d)", current))
	}

	if _, err := tx.Exec(`UPDATE shop_inventory SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`, next, id); err != nil {
		return 0, fmt.Errorf("failed to update stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return next, nil
}

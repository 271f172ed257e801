package models

import (
	"time"

	"github.com/google/uuid"
)

// MilkType is the milk a cheese is made from
type MilkType string

const (
	MilkCow     MilkType = "cow"
	MilkGoat    MilkType = "goat"
	MilkSheep   MilkType = "sheep"
	MilkBuffalo MilkType = "buffalo"
	MilkMixed   MilkType = "mixed"
)

// SaleUnit is how a shop sells an inventory item
type SaleUnit string

const (
	UnitPiece       SaleUnit = "piece"
	UnitKilogram    SaleUnit = "kg"
	UnitHundredGram SaleUnit = "100g"
)

// ShopInventory represents a cheese offered for sale by a business
type ShopInventory struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BusinessID    uuid.UUID  `db:"business_id" json:"business_id"`
	CheeseName    string     `db:"cheese_name" json:"cheese_name"`
	MilkType      MilkType   `db:"milk_type" json:"milk_type"`
	AOC           bool       `db:"aoc" json:"aoc"` // Appellation d'origine contrôlée
	Description   NullString `db:"description" json:"description"`
	Unit          SaleUnit   `db:"unit" json:"unit"`
	PriceCents    int64      `db:"price_cents" json:"price_cents"`
	StockQuantity int        `db:"stock_quantity" json:"stock_quantity"`
	IsAvailable   bool       `db:"is_available" json:"is_available"`
	ImageURL      NullString `db:"image_url" json:"image_url"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateInventoryRequest represents the request to add a cheese to a shop
type CreateInventoryRequest struct {
	CheeseName    string   `json:"cheese_name" binding:"required,max=200"`
	MilkType      MilkType `json:"milk_type" binding:"required,oneof=cow goat sheep buffalo mixed"`
	AOC           bool     `json:"aoc"`
	Description   string   `json:"description" binding:"max=5000"`
	Unit          SaleUnit `json:"unit" binding:"required,oneof=piece kg 100g"`
	PriceCents    int64    `json:"price_cents" binding:"gte=0"`
	StockQuantity int      `json:"stock_quantity" binding:"gte=0"`
	IsAvailable   *bool    `json:"is_available,omitempty"`
	ImageURL      string   `json:"image_url" binding:"max=500"`
}

// UpdateInventoryRequest represents a partial update of an inventory item.
// Stock is changed through AdjustStockRequest only.
type UpdateInventoryRequest struct {
	CheeseName  *string   `json:"cheese_name,omitempty" binding:"omitempty,max=200"`
	MilkType    *MilkType `json:"milk_type,omitempty" binding:"omitempty,oneof=cow goat sheep buffalo mixed"`
	AOC         *bool     `json:"aoc,omitempty"`
	Description *string   `json:"description,omitempty" binding:"omitempty,max=5000"`
	Unit        *SaleUnit `json:"unit,omitempty" binding:"omitempty,oneof=piece kg 100g"`
	PriceCents  *int64    `json:"price_cents,omitempty" binding:"omitempty,gte=0"`
	IsAvailable *bool     `json:"is_available,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty" binding:"omitempty,max=500"`
}

// AdjustStockRequest adds (or with a negative delta removes) stock
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DataTables lists every application table, children before parents
var DataTables = []string{
	"audit_logs",
	"login_attempts",
	"passport_stamps",
	"payment_events",
	"payments",
	"order_items",
	"orders",
	"tour_bookings",
	"tour_schedules",
	"tours",
	"aging_logs",
	"farm_batches",
	"shop_inventory",
	"verification_requests",
	"businesses",
	"refresh_tokens",
	"users",
}

// ClearData truncates all application tables, keeping the schema and migration history
func ClearData(db *sqlx.DB) error {
	query := "TRUNCATE TABLE "
	for i, t := range DataTables {
		if i > 0 {
			query += ", "
		}
		query += t
	}
	query += " RESTART IDENTITY CASCADE"

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// TableCounts returns the row count of every application table
func TableCounts(db *sqlx.DB) (map[string]int, error) {
	counts := make(map[string]int, len(DataTables))
	for _, t := range DataTables {
		var n int
		if err := db.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}

package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// StatsRepository computes the admin dashboard figures
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Dashboard returns platform-wide counters
func (r *StatsRepository) Dashboard() (*models.DashboardStats, error) {
	var stats models.DashboardStats

	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM businesses WHERE is_active) AS total_businesses,
			(SELECT COUNT(*) FROM businesses WHERE is_active AND verification_status = 'verified') AS verified_businesses,
			(SELECT COUNT(*) FROM verification_requests WHERE status = 'pending') AS pending_verifications,
			(SELECT COUNT(*) FROM tour_bookings WHERE status IN ('pending', 'confirmed')) AS active_bookings,
			(SELECT COUNT(*) FROM orders WHERE status IN ('pending', 'paid', 'preparing', 'ready', 'shipped')) AS open_orders,
			(SELECT COALESCE(SUM(amount_cents - amount_refunded_cents), 0)
			   FROM payments WHERE status IN ('succeeded', 'partially_refunded')) AS revenue_cents
	`

	if err := r.db.Get(&stats, query); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}

	return &stats, nil
}

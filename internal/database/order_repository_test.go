package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	inventoryRowColumns = []string{
		"id", "business_id", "cheese_name", "milk_type", "aoc", "description", "unit",
		"price_cents", "stock_quantity", "is_available", "image_url", "created_at", "updated_at",
	}
	orderRowColumns = []string{
		"id", "order_number", "user_id", "business_id", "status", "payment_status", "fulfillment",
		"delivery_address", "total_cents", "notes", "cancellation_reason", "cancelled_at",
		"created_at", "updated_at",
	}
)

func inventoryRow(rows *sqlmock.Rows, id, businessID uuid.UUID, name string, price int64, stock int, available bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id.String(), businessID.String(), name, "cow", true, nil, "piece",
		price, stock, available, nil, now, now)
}

func TestCreateOrder(t *testing.T) {
	businessID := uuid.New()
	comte, brie := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		rows := sqlmock.NewRows(inventoryRowColumns)
		inventoryRow(rows, comte, businessID, "Comté 24 mois", 2400, 5, true)
		inventoryRow(rows, brie, businessID, "Brie de Meaux", 1250, 2, true)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM shop_inventory\s+WHERE id = ANY\(\$1::uuid\[\]\)\s+ORDER BY id\s+FOR UPDATE`).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE shop_inventory SET stock_quantity = stock_quantity - \$1`).
			WithArgs(2, comte).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE shop_inventory SET stock_quantity = stock_quantity - \$1`).
			WithArgs(1, brie).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`INSERT INTO order_items`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_items`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		order, err := repo.CreateOrder(NewOrder{
			UserID:      uuid.New(),
			BusinessID:  businessID,
			Fulfillment: models.FulfillmentPickup,
			Lines: []models.OrderLine{
				{InventoryID: comte, Quantity: 2},
				{InventoryID: brie, Quantity: 1},
			},
			Now: now,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2*2400+1250), order.TotalCents)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.Equal(t, models.PaymentStateUnpaid, order.PaymentStatus)
		require.Len(t, order.Items, 2)
		assert.Equal(t, "Comté 24 mois", order.Items[0].CheeseName)
		assert.Equal(t, int64(4800), order.Items[0].LineTotalCents)
		assert.Regexp(t, `^CM-\d{8}-[0-9A-F]{6}$`, order.OrderNumber)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient Stock", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		rows := sqlmock.NewRows(inventoryRowColumns)
		inventoryRow(rows, brie, businessID, "Brie de Meaux", 1250, 2, true)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM shop_inventory`).WillReturnRows(rows)
		mock.ExpectRollback()

		order, err := repo.CreateOrder(NewOrder{
			UserID:      uuid.New(),
			BusinessID:  businessID,
			Fulfillment: models.FulfillmentPickup,
			Lines:       []models.OrderLine{{InventoryID: brie, Quantity: 3}},
			Now:         now,
		})
		assert.Nil(t, order)

		var stockErr *models.StockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, brie, stockErr.InventoryID)
		assert.Equal(t, 2, stockErr.Available)
		assert.Equal(t, 3, stockErr.Requested)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Item From Another Business", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		rows := sqlmock.NewRows(inventoryRowColumns)
		inventoryRow(rows, brie, uuid.New(), "Brie de Meaux", 1250, 10, true)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM shop_inventory`).WillReturnRows(rows)
		mock.ExpectRollback()

		_, err := repo.CreateOrder(NewOrder{
			BusinessID: businessID,
			Lines:      []models.OrderLine{{InventoryID: brie, Quantity: 1}},
			Now:        now,
		})

		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "items", vErr.Field)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unavailable Item", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		rows := sqlmock.NewRows(inventoryRowColumns)
		inventoryRow(rows, comte, businessID, "Comté 24 mois", 2400, 10, false)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM shop_inventory`).WillReturnRows(rows)
		mock.ExpectRollback()

		_, err := repo.CreateOrder(NewOrder{
			BusinessID: businessID,
			Lines:      []models.OrderLine{{InventoryID: comte, Quantity: 1}},
			Now:        now,
		})

		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelOrder(t *testing.T) {
	customerStatuses := []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPaid}

	t.Run("Paid Order Restores Stock", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)
		id := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("paid"))
		mock.ExpectQuery(`UPDATE orders\s+SET status = 'cancelled'`).
			WithArgs(models.ReasonCancelledByCustomer, id).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(
				id.String(), "CM-20260601-ABCDEF", uuid.NewString(), uuid.NewString(), "cancelled", "refund_pending",
				"pickup", nil, 4800, nil, models.ReasonCancelledByCustomer, now, now, now,
			))
		mock.ExpectExec(`UPDATE shop_inventory si\s+SET stock_quantity = si.stock_quantity \+ oi.quantity`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		order, err := repo.CancelOrder(id, models.ReasonCancelledByCustomer, customerStatuses)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, order.Status)
		assert.Equal(t, models.PaymentStateRefundPending, order.PaymentStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Preparing Not Allowed For Customer", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("preparing"))
		mock.ExpectRollback()

		_, err := repo.CancelOrder(uuid.New(), models.ReasonCancelledByCustomer, customerStatuses)
		assert.ErrorIs(t, err, models.ErrInvalidStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Order", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM orders`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.CancelOrder(uuid.New(), models.ReasonCancelledByCustomer, customerStatuses)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("Delivery Cannot Become Ready", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status, fulfillment FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "fulfillment"}).AddRow("preparing", "delivery"))
		mock.ExpectRollback()

		_, err := repo.UpdateStatus(uuid.New(), models.OrderStatusReady)
		assert.ErrorIs(t, err, models.ErrInvalidStatus)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delivery Ships", func(t *testing.T) {
		sqlxDB, mock := newMockDB(t)
		repo := NewOrderRepository(sqlxDB)
		id := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status, fulfillment FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "fulfillment"}).AddRow("preparing", "delivery"))
		mock.ExpectQuery(`UPDATE orders SET status = \$1`).
			WithArgs(models.OrderStatusShipped, id).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(
				id.String(), "CM-20260601-ABCDEF", uuid.NewString(), uuid.NewString(), "shipped", "paid",
				"delivery", "1 rue du Fromage, 21000 Dijon", 4800, nil, nil, nil, now, now,
			))
		mock.ExpectCommit()

		order, err := repo.UpdateStatus(id, models.OrderStatusShipped)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, order.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExpireUnpaidOrders(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewOrderRepository(sqlxDB)
	cutoff := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery(`WITH expired AS`).
		WithArgs(models.ReasonPaymentTimeout, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.ExpireUnpaid(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

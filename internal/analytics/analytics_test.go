package analytics_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/models"
)

func setupService(t *testing.T) *analytics.Service {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := bunDB.ResetModel(context.Background(), (*models.Order)(nil)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	return analytics.NewService(bunDB)
}

func seedOrder(t *testing.T, svc *analytics.Service, id, restaurantID string, status models.OrderStatus, payment models.PaymentStatus, total float64) {
	t.Helper()
	order := &models.Order{
		ID:            id,
		RestaurantID:  restaurantID,
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: models.PayCashOnCollection,
		TotalAmount:   total,
		Currency:      "usd",
		CreatedAt:     time.Now(),
	}
	if _, err := svc.Bun.NewInsert().Model(order).Exec(context.Background()); err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
}

func TestRestaurantSummary(t *testing.T) {
	svc := setupService(t)

	seedOrder(t, svc, "o1", "rest-1", models.OrderCompleted, models.PaymentCompleted, 25.0)
	seedOrder(t, svc, "o2", "rest-1", models.OrderCompleted, models.PaymentCompleted, 40.0)
	seedOrder(t, svc, "o3", "rest-1", models.OrderPending, models.PaymentPending, 18.0)
	seedOrder(t, svc, "o4", "rest-1", models.OrderCancelled, models.PaymentPending, 12.0)
	seedOrder(t, svc, "o5", "rest-other", models.OrderCompleted, models.PaymentCompleted, 99.0)

	summary, err := svc.RestaurantSummary(context.Background(), "rest-1")
	assert.NoError(t, err)

	assert.Equal(t, "rest-1", summary.RestaurantID)
	assert.Equal(t, 4, summary.TotalOrders)
	assert.Equal(t, 2, summary.ByStatus[models.OrderCompleted])
	assert.Equal(t, 1, summary.ByStatus[models.OrderPending])
	assert.Equal(t, 1, summary.ByStatus[models.OrderCancelled])

	// Revenue counts only settled payments; pending and cancelled totals
	// are excluded, as is the other restaurant.
	assert.Equal(t, 65.0, summary.Revenue)
}

func TestRestaurantSummaryEmpty(t *testing.T) {
	svc := setupService(t)

	summary, err := svc.RestaurantSummary(context.Background(), "rest-none")
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalOrders)
	assert.Empty(t, summary.ByStatus)
	assert.Equal(t, 0.0, summary.Revenue)
}

package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// Service computes the aggregates behind the restaurant owner dashboard.
type Service struct {
	Bun *bun.DB
}

func NewService(bunDB *bun.DB) *Service {
	return &Service{Bun: bunDB}
}

// Summary is the dashboard headline for one restaurant.
type Summary struct {
	RestaurantID string                     `json:"restaurant_id"`
	TotalOrders  int                        `json:"total_orders"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	Revenue      float64                    `json:"revenue"`
}

type statusCount struct {
	Status models.OrderStatus `bun:"status"`
	Count  int                `bun:"count"`
}

// RestaurantSummary counts orders per status and sums revenue over orders
// whose payment completed.
func (s *Service) RestaurantSummary(ctx context.Context, restaurantID string) (*Summary, error) {
	var counts []statusCount
	err := s.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("status").
		ColumnExpr("COUNT(*) AS count").
		Where("restaurant_id = ?", restaurantID).
		Group("status").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RestaurantID: restaurantID,
		ByStatus:     make(map[models.OrderStatus]int),
	}
	for _, c := range counts {
		summary.ByStatus[c.Status] = c.Count
		summary.TotalOrders += c.Count
	}

	var revenue float64
	err = s.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(total_amount), 0.0)").
		Where("restaurant_id = ?", restaurantID).
		Where("payment_status = ?", models.PaymentCompleted).
		Scan(ctx, &revenue)
	if err != nil {
		return nil, err
	}
	summary.Revenue = revenue

	return summary, nil
}

package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

var (
	ErrPromoNotFound   = errors.New("promotion not found")
	ErrPromoNotStarted = errors.New("promotion is not active yet")
	ErrPromoExpired    = errors.New("promotion has expired")
	ErrPromoExhausted  = errors.New("promotion usage limit reached")
)

const usesKeyPrefix = "promo_uses:"

// Service validates promotion codes and computes bill-time discounts.
// Discounts are display-only: they never rewrite an order's persisted
// total_amount. Usage caps are enforced with a Redis counter so two
// concurrent redemptions cannot both sneak under the cap.
type Service struct {
	Bun   *bun.DB
	Redis *redis.Client
	log   *logger.Logger
}

func NewService(bunDB *bun.DB, redisClient *redis.Client, log *logger.Logger) *Service {
	return &Service{Bun: bunDB, Redis: redisClient, log: log}
}

// Validate looks up a code for a restaurant and checks its validity window.
func (s *Service) Validate(ctx context.Context, restaurantID, code string, at time.Time) (*models.Promotion, error) {
	var promo models.Promotion
	err := s.Bun.NewSelect().
		Model(&promo).
		Where("restaurant_id = ?", restaurantID).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}

	if at.Before(promo.ValidFrom) {
		return nil, ErrPromoNotStarted
	}
	if at.After(promo.ValidUntil) {
		return nil, ErrPromoExpired
	}
	return &promo, nil
}

// Redeem burns one use of the promotion. Unlimited when MaxUses <= 0.
// The counter is incremented first and rolled back on overshoot, so the
// cap holds under concurrent redemptions.
func (s *Service) Redeem(ctx context.Context, promo *models.Promotion) error {
	if promo.MaxUses <= 0 {
		return nil
	}
	if s.Redis == nil {
		return errors.New("usage-capped promotion requires redis")
	}

	uses, err := s.Redis.Incr(ctx, usesKeyPrefix+promo.ID).Result()
	if err != nil {
		return err
	}
	if uses > int64(promo.MaxUses) {
		if err := s.Redis.Decr(ctx, usesKeyPrefix+promo.ID).Err(); err != nil {
			s.log.Warn("PROMO", fmt.Sprintf("failed to roll back use counter for %s: %v", promo.Code, err))
		}
		return ErrPromoExhausted
	}

	s.log.Info("PROMO", fmt.Sprintf("code %s redeemed (%d/%d)", promo.Code, uses, promo.MaxUses))
	return nil
}

// Discount computes the amount taken off a bill total. The result never
// exceeds the total.
func Discount(promo models.Promotion, total float64) float64 {
	if total <= 0 {
		return 0
	}

	var off float64
	switch promo.DiscountType {
	case models.DiscountPercentage:
		off = total * promo.Value / 100
	case models.DiscountFixed:
		off = promo.Value
	default:
		return 0
	}

	if off > total {
		return total
	}
	if off < 0 {
		return 0
	}
	return off
}

// Bill is a rendered bill with an applied promotion.
type Bill struct {
	Total       float64 `json:"total"`
	Discount    float64 `json:"discount"`
	AmountDue   float64 `json:"amount_due"`
	PromoCode   string  `json:"promo_code,omitempty"`
	PromotionID string  `json:"promotion_id,omitempty"`
}

// ApplyToBill validates and redeems the code against a bill total. This is
// the only place discounts surface; the stored order keeps its original
// total.
func (s *Service) ApplyToBill(ctx context.Context, restaurantID, code string, total float64, at time.Time) (*Bill, error) {
	promo, err := s.Validate(ctx, restaurantID, code, at)
	if err != nil {
		return nil, err
	}
	if err := s.Redeem(ctx, promo); err != nil {
		return nil, err
	}

	off := Discount(*promo, total)
	return &Bill{
		Total:       total,
		Discount:    off,
		AmountDue:   total - off,
		PromoCode:   promo.Code,
		PromotionID: promo.ID,
	}, nil
}

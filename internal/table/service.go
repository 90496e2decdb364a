package table

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

var ErrTableNotFound = errors.New("table not found")

const scanCachePrefix = "scan_code:"

// Service manages restaurant tables and resolves scan codes. Resolutions
// are cached read-through in Redis: scan codes are immutable once printed
// on a table, so a long TTL is safe.
type Service struct {
	Bun      *bun.DB
	Redis    *redis.Client
	log      *logger.Logger
	cacheTTL time.Duration
}

func NewService(bunDB *bun.DB, redisClient *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{Bun: bunDB, Redis: redisClient, log: log, cacheTTL: cacheTTL}
}

// CreateTable registers a table and mints its opaque scan code.
func (s *Service) CreateTable(ctx context.Context, restaurantID string, number int) (*models.Table, error) {
	if restaurantID == "" {
		return nil, errors.New("restaurant_id is required")
	}

	table := &models.Table{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		Number:       number,
		ScanCode:     uuid.NewString(),
		CreatedAt:    time.Now(),
	}
	if _, err := s.Bun.NewInsert().Model(table).Exec(ctx); err != nil {
		return nil, err
	}

	s.log.Info("TABLE", fmt.Sprintf("created table %d for restaurant %s", number, restaurantID))
	return table, nil
}

// ListTables returns a restaurant's tables ordered by number.
func (s *Service) ListTables(ctx context.Context, restaurantID string) ([]models.Table, error) {
	var tables []models.Table
	err := s.Bun.NewSelect().
		Model(&tables).
		Where("restaurant_id = ?", restaurantID).
		Order("number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// ResolveScanCode maps the opaque code from a table's QR onto the
// restaurant/table pair, consulting the Redis cache first.
func (s *Service) ResolveScanCode(ctx context.Context, code string) (*models.Table, error) {
	if code == "" {
		return nil, ErrTableNotFound
	}

	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, scanCachePrefix+code).Result()
		if err == nil {
			var table models.Table
			if err := json.Unmarshal([]byte(cached), &table); err == nil {
				return &table, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("TABLE", fmt.Sprintf("scan cache read failed for %s: %v", code, err))
		}
	}

	var table models.Table
	err := s.Bun.NewSelect().
		Model(&table).
		Where("scan_code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(table); err == nil {
			if err := s.Redis.Set(ctx, scanCachePrefix+code, payload, s.cacheTTL).Err(); err != nil {
				s.log.Warn("TABLE", fmt.Sprintf("scan cache write failed for %s: %v", code, err))
			}
		}
	}

	return &table, nil
}

package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shelfstock/internal/models"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type CacheService interface {
	// Item total caching
	GetItemTotal(ctx context.Context, itemID uuid.UUID) (*int, error)
	SetItemTotal(ctx context.Context, itemID uuid.UUID, total int, ttl time.Duration) error
	DeleteItemTotal(ctx context.Context, itemID uuid.UUID) error

	// Consumable total caching
	GetConsumableTotal(ctx context.Context, consumableID uuid.UUID) (*decimal.Decimal, error)
	SetConsumableTotal(ctx context.Context, consumableID uuid.UUID, total decimal.Decimal, ttl time.Duration) error
	DeleteConsumableTotal(ctx context.Context, consumableID uuid.UUID) error

	// Location tree caching
	GetLocationTree(ctx context.Context, warehouseID uuid.UUID) ([]*models.LocationNode, error)
	SetLocationTree(ctx context.Context, warehouseID uuid.UUID, tree []*models.LocationNode, ttl time.Duration) error
	DeleteLocationTree(ctx context.Context, warehouseID uuid.UUID) error

	// Cache invalidation
	InvalidateAll(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both bare host:port and redis:// URLs.
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	} else {
		logger.Info().Str("addr", parsedAddr).Msg("redis connection established")
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetItemTotal(ctx context.Context, itemID uuid.UUID) (*int, error) {
	key := fmt.Sprintf("shelfstock:item-total:%s", itemID.String())
	total, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return &total, nil
}

func (r *redisCacheService) SetItemTotal(ctx context.Context, itemID uuid.UUID, total int, ttl time.Duration) error {
	key := fmt.Sprintf("shelfstock:item-total:%s", itemID.String())
	return r.client.Set(ctx, key, total, ttl).Err()
}

func (r *redisCacheService) DeleteItemTotal(ctx context.Context, itemID uuid.UUID) error {
	key := fmt.Sprintf("shelfstock:item-total:%s", itemID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetConsumableTotal(ctx context.Context, consumableID uuid.UUID) (*decimal.Decimal, error) {
	key := fmt.Sprintf("shelfstock:consumable-total:%s", consumableID.String())
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	total, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &total, nil
}

func (r *redisCacheService) SetConsumableTotal(ctx context.Context, consumableID uuid.UUID, total decimal.Decimal, ttl time.Duration) error {
	key := fmt.Sprintf("shelfstock:consumable-total:%s", consumableID.String())
	return r.client.Set(ctx, key, total.String(), ttl).Err()
}

func (r *redisCacheService) DeleteConsumableTotal(ctx context.Context, consumableID uuid.UUID) error {
	key := fmt.Sprintf("shelfstock:consumable-total:%s", consumableID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetLocationTree(ctx context.Context, warehouseID uuid.UUID) ([]*models.LocationNode, error) {
	key := fmt.Sprintf("shelfstock:location-tree:%s", warehouseID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var tree []*models.LocationNode
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (r *redisCacheService) SetLocationTree(ctx context.Context, warehouseID uuid.UUID, tree []*models.LocationNode, ttl time.Duration) error {
	key := fmt.Sprintf("shelfstock:location-tree:%s", warehouseID.String())
	data, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteLocationTree(ctx context.Context, warehouseID uuid.UUID) error {
	key := fmt.Sprintf("shelfstock:location-tree:%s", warehouseID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateAll(ctx context.Context) error {
	pattern := "shelfstock:*"
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

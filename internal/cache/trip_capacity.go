package cache

import (
	"context"
	"fmt"
	"time"

	apperrors "bus-reservation/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// TripCapacityCache 是 available_seats 的諮詢性快取，
// 供搜尋/預檢走快速路徑。trips 表才是權威，
// 這裡的值絕不做為寫入路徑的守門。
type TripCapacityCache interface {
	// 預熱：寫入車次剩餘座位數
	WarmUp(ctx context.Context, tripID int, available int) error
	// 讀取剩餘座位數，快取未命中回傳 ErrTripNotFound
	Available(ctx context.Context, tripID int) (int, error)
	// 諮詢性檢查：剩餘座位數是否足夠
	HasEnoughSeats(ctx context.Context, tripID int, required int) (bool, error)
	// 使快取失效，下次讀取回源
	Invalidate(ctx context.Context, tripID int) error
}

const capacityTTL = 5 * time.Minute

type TripCapacityCacheImpl struct {
	client *redis.Client
}

func NewTripCapacityCache(client *redis.Client) TripCapacityCache {
	return &TripCapacityCacheImpl{
		client: client,
	}
}

func (c *TripCapacityCacheImpl) getCapacityKey(tripID int) string {
	return fmt.Sprintf("trip:%d:capacity", tripID)
}

func (c *TripCapacityCacheImpl) WarmUp(ctx context.Context, tripID int, available int) error {
	return c.client.Set(ctx, c.getCapacityKey(tripID), available, capacityTTL).Err()
}

func (c *TripCapacityCacheImpl) Available(ctx context.Context, tripID int) (int, error) {
	val, err := c.client.Get(ctx, c.getCapacityKey(tripID)).Int()
	if err == redis.Nil {
		return -1, apperrors.ErrTripNotFound
	}
	return val, err
}

func (c *TripCapacityCacheImpl) HasEnoughSeats(ctx context.Context, tripID int, required int) (bool, error) {
	available, err := c.Available(ctx, tripID)
	if err != nil {
		return false, err
	}
	return available >= required, nil
}

func (c *TripCapacityCacheImpl) Invalidate(ctx context.Context, tripID int) error {
	return c.client.Del(ctx, c.getCapacityKey(tripID)).Err()
}

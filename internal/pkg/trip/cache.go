package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by GetTrips when no trips are stored under the key.
var ErrCacheMiss = errors.New("trip cache miss")

type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type TripCache struct {
	redis RedisClient
}

func NewTripCache(redis RedisClient) *TripCache {
	return &TripCache{
		redis: redis,
	}
}

func (c *TripCache) GetLockKey(req dto.SearchTripRequest) string {
	return "trip:lock:" + requestKey(req)
}

func (c *TripCache) GetCacheKey(req dto.SearchTripRequest) string {
	return "trip:cache:" + requestKey(req)
}

// requestKey keeps the route readable and hashes the optional constraints,
// so two searches share a key only when every field matches.
func requestKey(req dto.SearchTripRequest) string {
	route := req
	route.Origin = strings.ToUpper(req.Origin)
	route.Destination = strings.ToUpper(req.Destination)

	// a struct of plain fields always marshals
	raw, _ := json.Marshal(route)

	return fmt.Sprintf("%s:%s:%s:%016x", route.Date, route.Origin, route.Destination, xxhash.Sum64(raw))
}

func (c *TripCache) AcquireLock(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	return c.redis.SetNX(ctx, key, "1", timeout).Result()
}

func (c *TripCache) ReleaseLock(ctx context.Context, key string) error {
	return c.redis.Del(ctx, key).Err()
}

func (c *TripCache) SetTrips(ctx context.Context,
	key string,
	trips map[int]qpx.FlattenedTrip,
	expiration time.Duration,
) error {
	data, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("failed to marshal trips: %w", err)
	}

	err = c.redis.Set(ctx, key, data, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set trips: %w", err)
	}

	return nil
}

func (c *TripCache) GetTrips(ctx context.Context, key string) (map[int]qpx.FlattenedTrip, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get trips: %w", err)
	}

	var trips map[int]qpx.FlattenedTrip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}

	return trips, nil
}

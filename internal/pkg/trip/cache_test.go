package trip

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTripCache_Keys_Closure(t *testing.T) {
	solutions := 5

	base := dto.SearchTripRequest{Origin: "SAN", Destination: "JFK", Date: "2024-05-01"}
	lower := dto.SearchTripRequest{Origin: "san", Destination: "jfk", Date: "2024-05-01"}
	narrowed := base
	narrowed.Solutions = &solutions

	c := &TripCache{}

	t.Run("prefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(c.GetCacheKey(base), "trip:cache:2024-05-01:SAN:JFK:"))
		assert.True(t, strings.HasPrefix(c.GetLockKey(base), "trip:lock:2024-05-01:SAN:JFK:"))
	})

	t.Run("case_insensitive_route", func(t *testing.T) {
		assert.Equal(t, c.GetCacheKey(base), c.GetCacheKey(lower))
	})

	t.Run("options_change_key", func(t *testing.T) {
		assert.NotEqual(t, c.GetCacheKey(base), c.GetCacheKey(narrowed))
	})
}

func TestTripCache_AcquireLock_Closure(t *testing.T) {
	acquireLockRequest := func(key string, timeout time.Duration, mockSetup func(m *MockRedisClient), want bool) func(t *testing.T) {
		return func(t *testing.T) {
			m := NewMockRedisClient(t)
			mockSetup(m)
			c := NewTripCache(m)

			got, err := c.AcquireLock(context.Background(), key, timeout)
			if err != nil {
				t.Fatalf("AcquireLock returned error: %v", err)
			}
			if got != want {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	}

	t.Run("lock_acquired", acquireLockRequest("test-key", 5*time.Second, func(m *MockRedisClient) {
		m.On("SetNX", mock.Anything, "test-key", "1", 5*time.Second).Return(redis.NewBoolResult(true, nil))
	}, true))

	t.Run("lock_not_acquired", acquireLockRequest("test-key", 5*time.Second, func(m *MockRedisClient) {
		m.On("SetNX", mock.Anything, "test-key", "1", 5*time.Second).Return(redis.NewBoolResult(false, nil))
	}, false))
}

func TestTripCache_ReleaseLock(t *testing.T) {
	m := NewMockRedisClient(t)
	m.On("Del", mock.Anything, []string{"test-key"}).Return(redis.NewIntResult(1, nil))

	assert.NoError(t, NewTripCache(m).ReleaseLock(context.Background(), "test-key"))
}

func TestTripCache_SetTrips_Closure(t *testing.T) {
	setTripsRequest := func(key string, trips map[int]qpx.FlattenedTrip, exp time.Duration, mockSetup func(m *MockRedisClient)) func(t *testing.T) {
		return func(t *testing.T) {
			m := NewMockRedisClient(t)
			mockSetup(m)
			c := NewTripCache(m)

			err := c.SetTrips(context.Background(), key, trips, exp)
			if err != nil {
				t.Fatalf("SetTrips returned error: %v", err)
			}
		}
	}

	trips := map[int]qpx.FlattenedTrip{0: {ID: "1"}}

	t.Run("success", setTripsRequest("test-cache", trips, 10*time.Minute, func(m *MockRedisClient) {
		m.On("Set", mock.Anything, "test-cache", mock.Anything, 10*time.Minute).Return(redis.NewStatusResult("OK", nil))
	}))

	t.Run("redis_error", func(t *testing.T) {
		m := NewMockRedisClient(t)
		m.On("Set", mock.Anything, "test-cache", mock.Anything, time.Minute).Return(redis.NewStatusResult("", errors.New("down")))

		err := NewTripCache(m).SetTrips(context.Background(), "test-cache", trips, time.Minute)
		assert.Error(t, err)
	})
}

func TestTripCache_GetTrips_Closure(t *testing.T) {
	getTripsRequest := func(key string, mockSetup func(m *MockRedisClient), want map[int]qpx.FlattenedTrip, wantErr error) func(t *testing.T) {
		return func(t *testing.T) {
			m := NewMockRedisClient(t)
			mockSetup(m)
			c := NewTripCache(m)

			got, err := c.GetTrips(context.Background(), key)
			if wantErr != nil {
				if !errors.Is(err, wantErr) {
					t.Fatalf("GetTrips error = %v, wantErr %v", err, wantErr)
				}
				return
			}

			require.NoError(t, err)
			diff := cmp.Diff(want, got)
			if diff != "" {
				t.Fatalf("GetTrips mismatch (-want +got):\n%s", diff)
			}
		}
	}

	trips := map[int]qpx.FlattenedTrip{
		0: {ID: "1", Total: "USD10", FlightCodes: []string{"AA1"}, Airports: []string{"SAN", "JFK"}, DepartTimes: []string{"t"}},
	}
	t.Run("success", getTripsRequest("test-cache", func(m *MockRedisClient) {
		m.On("Get", mock.Anything, "test-cache").Return(redis.NewStringResult(
			`{"0":{"id":"1","total":"USD10","flight_code":["AA1"],"airports":["SAN","JFK"],"depart_times":["t"]}}`, nil))
	}, trips, nil))

	t.Run("cache_miss", getTripsRequest("test-cache", func(m *MockRedisClient) {
		m.On("Get", mock.Anything, "test-cache").Return(redis.NewStringResult("", redis.Nil))
	}, nil, ErrCacheMiss))

	redisDown := errors.New("redis down")
	t.Run("redis_error", getTripsRequest("test-cache", func(m *MockRedisClient) {
		m.On("Get", mock.Anything, "test-cache").Return(redis.NewStringResult("", redisDown))
	}, nil, redisDown))
}

func TestTripCache_GetTrips_RedisErrorIsNotMiss(t *testing.T) {
	m := NewMockRedisClient(t)
	m.On("Get", mock.Anything, "test-cache").Return(redis.NewStringResult("", errors.New("redis down")))

	_, err := NewTripCache(m).GetTrips(context.Background(), "test-cache")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}

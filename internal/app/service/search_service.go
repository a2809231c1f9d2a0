package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/trip"
)

type TripCacher interface {
	GetLockKey(req dto.SearchTripRequest) string
	GetCacheKey(req dto.SearchTripRequest) string
	AcquireLock(ctx context.Context, key string, timeout time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	GetTrips(ctx context.Context, key string) (map[int]qpx.FlattenedTrip, error)
	SetTrips(ctx context.Context, key string, trips map[int]qpx.FlattenedTrip, expiration time.Duration) error
}

// TripSearcher is satisfied by *qpx.Client.
type TripSearcher interface {
	Do(ctx context.Context, req qpx.SearchRequest) (map[int]qpx.FlattenedTrip, error)
}

type SearchService struct {
	Searcher            TripSearcher
	Cache               TripCacher
	TripCacheExpiration time.Duration
	TripLockTimeout     time.Duration
}

func NewSearchService(searcher TripSearcher,
	cache TripCacher, tripCacheExpiration time.Duration,
	tripLockTimeout time.Duration) *SearchService {
	return &SearchService{
		Searcher:            searcher,
		Cache:               cache,
		TripCacheExpiration: tripCacheExpiration,
		TripLockTimeout:     tripLockTimeout,
	}
}

// SearchTrips godoc
// @Summary      Search trips
// @Tags         Trips
// @Description  Search one-way trips on QPX Express and return them flattened, in QPX order
// @Param        request  body      dto.SearchTripRequest  true  "Search Request"
// @Success      200      {object}  dto.SearchTripResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Failure      429      {object}  dto.ErrorResponse
// @Failure      502      {object}  dto.ErrorResponse
// @Router       /api/v1/trips/search [post]
func (s *SearchService) SearchTrips(
	ctx context.Context,
	req dto.SearchTripRequest,
) (dto.SearchTripResponse, error) {
	startTime := time.Now()
	cacheHit := false

	qpxReq, err := qpx.NewSearchRequest(req.Destination, req.Origin, req.Date, req.Options()...)
	if err != nil {
		return dto.SearchTripResponse{}, fmt.Errorf("failed to build qpx request: %w", err)
	}

	cacheKey := s.Cache.GetCacheKey(req)
	lockKey := s.Cache.GetLockKey(req)

	trips, err := s.Cache.GetTrips(ctx, cacheKey)
	switch {
	case err == nil:
		cacheHit = true
	case errors.Is(err, trip.ErrCacheMiss):
		slog.DebugContext(ctx, "trips not in cache", slog.String("key", cacheKey))
	default:
		slog.WarnContext(ctx, "failed to get trips from cache", slog.String("error", err.Error()))
	}

	// cache miss: ask qpx, then only the lock holder writes the result back
	// so concurrent identical searches do not race on the same key
	if !cacheHit {
		trips, err = s.Searcher.Do(ctx, qpxReq)
		if err != nil {
			return dto.SearchTripResponse{}, fmt.Errorf("failed to get trips from qpx: %w", err)
		}

		s.storeTrips(ctx, cacheKey, lockKey, trips)
	}

	if len(trips) == 0 {
		return dto.SearchTripResponse{}, ErrNoTripsFound
	}

	return dto.SearchTripResponse{
		SearchRequest: req,
		Trips:         trips,
		Metadata: dto.Metadata{
			TotalResults: len(trips),
			SearchTimeMs: int(time.Since(startTime).Milliseconds()),
			CacheHit:     cacheHit,
		},
	}, nil
}

// storeTrips writes trips back under the lock. Cache failures are logged and
// never fail the search.
func (s *SearchService) storeTrips(ctx context.Context,
	cacheKey, lockKey string,
	trips map[int]qpx.FlattenedTrip,
) {
	acquired, err := s.Cache.AcquireLock(ctx, lockKey, s.TripLockTimeout)
	if err != nil {
		slog.WarnContext(ctx, "failed to acquire trip cache lock", slog.String("error", err.Error()))
		return
	}

	if !acquired {
		return
	}

	defer func() {
		if err := s.Cache.ReleaseLock(ctx, lockKey); err != nil {
			slog.WarnContext(ctx, "failed to release trip cache lock", slog.String("error", err.Error()))
		}
	}()

	err = s.Cache.SetTrips(ctx, cacheKey, trips, s.TripCacheExpiration)
	if err != nil {
		slog.WarnContext(ctx, "failed to set trips to cache", slog.String("error", err.Error()))
	}
}

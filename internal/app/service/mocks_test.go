package service

import (
	"context"
	"time"

	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockTripCacher struct {
	mock.Mock
}

func NewMockTripCacher(t testingT) *MockTripCacher {
	m := &MockTripCacher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockTripCacher) GetLockKey(req dto.SearchTripRequest) string {
	return m.Called(req).String(0)
}

func (m *MockTripCacher) GetCacheKey(req dto.SearchTripRequest) string {
	return m.Called(req).String(0)
}

func (m *MockTripCacher) AcquireLock(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	args := m.Called(ctx, key, timeout)
	return args.Bool(0), args.Error(1)
}

func (m *MockTripCacher) ReleaseLock(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockTripCacher) GetTrips(ctx context.Context, key string) (map[int]qpx.FlattenedTrip, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]qpx.FlattenedTrip), args.Error(1)
}

func (m *MockTripCacher) SetTrips(ctx context.Context, key string, trips map[int]qpx.FlattenedTrip, expiration time.Duration) error {
	return m.Called(ctx, key, trips, expiration).Error(0)
}

type MockTripSearcher struct {
	mock.Mock
}

func NewMockTripSearcher(t testingT) *MockTripSearcher {
	m := &MockTripSearcher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockTripSearcher) Do(ctx context.Context, req qpx.SearchRequest) (map[int]qpx.FlattenedTrip, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]qpx.FlattenedTrip), args.Error(1)
}

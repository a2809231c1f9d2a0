package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kit/kit/endpoint"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
)

type SearchService interface {
	SearchTrips(ctx context.Context, req dto.SearchTripRequest) (dto.SearchTripResponse, error)
}

type SearchEndpoint struct {
	SearchTrips endpoint.Endpoint
}

func MakeSearchEndpoint(service SearchService) SearchEndpoint {
	return SearchEndpoint{
		SearchTrips: makeSearchTripsEndpoint(service),
	}
}

func makeSearchTripsEndpoint(service SearchService) endpoint.Endpoint {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		request, ok := req.(*dto.SearchTripRequest)
		if !ok || request == nil {
			return nil, errors.New("invalid type")
		}

		trips, err := service.SearchTrips(ctx, *request)
		if err != nil {
			return nil, fmt.Errorf("search service: %w", err)
		}

		return trips, nil
	}
}

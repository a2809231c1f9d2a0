package dto

import (
	"net/http"

	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/exception"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/qpx"
)

// SearchTripRequest is the public search payload. Nil optional fields keep
// the qpx defaults.
type SearchTripRequest struct {
	Origin                string   `json:"origin" validate:"required,iata"`
	Destination           string   `json:"destination" validate:"required,iata"`
	Date                  string   `json:"date" validate:"required,datetime=2006-01-02"`
	AdultCount            *int     `json:"adult_count,omitempty" validate:"omitempty,gte=0,lte=9"`
	ChildCount            *int     `json:"child_count,omitempty" validate:"omitempty,gte=0,lte=9"`
	SeniorCount           *int     `json:"senior_count,omitempty" validate:"omitempty,gte=0,lte=9"`
	EarliestDepart        *string  `json:"earliest_depart,omitempty" validate:"omitempty,datetime=15:04"`
	LatestDepart          *string  `json:"latest_depart,omitempty" validate:"omitempty,datetime=15:04"`
	EarliestArrive        *string  `json:"earliest_arrive,omitempty" validate:"omitempty,datetime=15:04"`
	LatestArrive          *string  `json:"latest_arrive,omitempty" validate:"omitempty,datetime=15:04"`
	MaxPrice              *int64   `json:"max_price,omitempty" validate:"omitempty,gt=0"`
	Solutions             *int     `json:"solutions,omitempty" validate:"omitempty,gt=0,lte=500"`
	PermittedCarriers     []string `json:"permitted_carriers,omitempty" validate:"omitempty,dive,len=2,alphanum"`
	ForbiddenCarriers     []string `json:"forbidden_carriers,omitempty" validate:"omitempty,dive,len=2,alphanum"`
	Refundable            *bool    `json:"refundable,omitempty"`
	PreferredCabin        *string  `json:"preferred_cabin,omitempty" validate:"omitempty,oneof=coach premium_coach business first COACH PREMIUM_COACH BUSINESS FIRST"`
	MaxStops              *int     `json:"max_stops,omitempty" validate:"omitempty,gte=0"`
	MaxConnectionDuration *int64   `json:"max_connection_duration,omitempty" validate:"omitempty,gt=0"`
}

func (s *SearchTripRequest) Bind(r *http.Request) error {
	return s.Validate()
}

func (s *SearchTripRequest) Validate() error {
	if err := ValidateSingleError(s); err != nil {
		return exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}

	return nil
}

// Options converts the set fields into qpx overrides.
func (s SearchTripRequest) Options() []qpx.Option {
	var opts []qpx.Option

	if s.AdultCount != nil {
		opts = append(opts, qpx.WithAdults(*s.AdultCount))
	}

	if s.ChildCount != nil {
		opts = append(opts, qpx.WithChildren(*s.ChildCount))
	}

	if s.SeniorCount != nil {
		opts = append(opts, qpx.WithSeniors(*s.SeniorCount))
	}

	if s.EarliestDepart != nil || s.LatestDepart != nil {
		opts = append(opts, qpx.WithDepartureWindow(
			valueOr(s.EarliestDepart, qpx.DayStart), valueOr(s.LatestDepart, qpx.DayEnd)))
	}

	if s.EarliestArrive != nil || s.LatestArrive != nil {
		opts = append(opts, qpx.WithArrivalWindow(
			valueOr(s.EarliestArrive, qpx.DayStart), valueOr(s.LatestArrive, qpx.DayEnd)))
	}

	if s.MaxPrice != nil {
		opts = append(opts, qpx.WithMaxPrice(*s.MaxPrice))
	}

	if s.Solutions != nil {
		opts = append(opts, qpx.WithSolutions(*s.Solutions))
	}

	if len(s.PermittedCarriers) > 0 {
		opts = append(opts, qpx.WithPermittedCarriers(s.PermittedCarriers...))
	}

	if len(s.ForbiddenCarriers) > 0 {
		opts = append(opts, qpx.WithForbiddenCarriers(s.ForbiddenCarriers...))
	}

	if s.Refundable != nil {
		opts = append(opts, qpx.WithRefundable(*s.Refundable))
	}

	if s.PreferredCabin != nil {
		opts = append(opts, qpx.WithPreferredCabin(*s.PreferredCabin))
	}

	if s.MaxStops != nil {
		opts = append(opts, qpx.WithMaxStops(*s.MaxStops))
	}

	if s.MaxConnectionDuration != nil {
		opts = append(opts, qpx.WithMaxConnectionDuration(*s.MaxConnectionDuration))
	}

	return opts
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}

	return *v
}

type Metadata struct {
	TotalResults int  `json:"total_results"`
	SearchTimeMs int  `json:"search_time_ms"`
	CacheHit     bool `json:"cache_hit"`
}

// SearchTripResponse is the response struct for the search trip endpoint.
// Trips are keyed by their position in the QPX reply.
type SearchTripResponse struct {
	SearchRequest SearchTripRequest         `json:"search_request"`
	Metadata      Metadata                  `json:"metadata"`
	Trips         map[int]qpx.FlattenedTrip `json:"trips"`
}

//go:build unit

package qpx

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	qpxexpress "google.golang.org/api/qpxexpress/v1"
)

func segment(carrier, number, origin, destination, departure string) *qpxexpress.SegmentInfo {
	return &qpxexpress.SegmentInfo{
		Flight: &qpxexpress.FlightInfo{Carrier: carrier, Number: number},
		Leg: []*qpxexpress.LegInfo{
			{Origin: origin, Destination: destination, DepartureTime: departure},
		},
	}
}

func response(options ...*qpxexpress.TripOption) *qpxexpress.TripsSearchResponse {
	return &qpxexpress.TripsSearchResponse{
		Kind:  "qpxExpress#tripsSearch",
		Trips: &qpxexpress.TripOptionsResponse{TripOption: options},
	}
}

func TestFlatten(t *testing.T) {
	flattenResponse := func(resp *qpxexpress.TripsSearchResponse, want map[int]FlattenedTrip) func(t *testing.T) {
		return func(t *testing.T) {
			got := Flatten(resp)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("Flatten() mismatch (-want +got):\n%s", diff)
			}
		}
	}

	t.Run("empty", flattenResponse(&qpxexpress.TripsSearchResponse{}, map[int]FlattenedTrip{}))

	t.Run("nil", flattenResponse(nil, map[int]FlattenedTrip{}))

	t.Run("two_slices_one_segment_each", flattenResponse(
		response(
			&qpxexpress.TripOption{
				Id:        "trip-1",
				SaleTotal: "USD412.10",
				Slice: []*qpxexpress.SliceInfo{
					{Segment: []*qpxexpress.SegmentInfo{segment("AA", "21", "SAN", "JFK", "2024-05-01T06:00-07:00")}},
					{Segment: []*qpxexpress.SegmentInfo{segment("AA", "22", "JFK", "SAN", "2024-05-08T18:30-04:00")}},
				},
			},
		),
		map[int]FlattenedTrip{
			0: {
				ID:          "trip-1",
				Total:       "USD412.10",
				FlightCodes: []string{"AA21", "AA22"},
				Airports:    []string{"SAN", "JFK", "JFK", "SAN"},
				DepartTimes: []string{"2024-05-01T06:00-07:00", "2024-05-08T18:30-04:00"},
			},
		},
	))

	t.Run("only_first_leg_is_read", flattenResponse(
		response(
			&qpxexpress.TripOption{
				Id:        "trip-1",
				SaleTotal: "USD100.00",
				Slice: []*qpxexpress.SliceInfo{{Segment: []*qpxexpress.SegmentInfo{{
					Flight: &qpxexpress.FlightInfo{Carrier: "UA", Number: "900"},
					Leg: []*qpxexpress.LegInfo{
						{Origin: "SFO", Destination: "DEN", DepartureTime: "t1"},
						{Origin: "DEN", Destination: "ORD", DepartureTime: "t2"},
					},
				}}}},
			},
		),
		map[int]FlattenedTrip{
			0: {
				ID:          "trip-1",
				Total:       "USD100.00",
				FlightCodes: []string{"UA900"},
				Airports:    []string{"SFO", "DEN"},
				DepartTimes: []string{"t1"},
			},
		},
	))

	t.Run("segment_without_leg_is_skipped", flattenResponse(
		response(
			&qpxexpress.TripOption{
				Id:        "trip-1",
				SaleTotal: "USD100.00",
				Slice: []*qpxexpress.SliceInfo{{Segment: []*qpxexpress.SegmentInfo{
					{Flight: &qpxexpress.FlightInfo{Carrier: "DL", Number: "1"}},
					segment("DL", "2", "ATL", "LAX", "t1"),
				}}},
			},
		),
		map[int]FlattenedTrip{
			0: {
				ID:          "trip-1",
				Total:       "USD100.00",
				FlightCodes: []string{"DL2"},
				Airports:    []string{"ATL", "LAX"},
				DepartTimes: []string{"t1"},
			},
		},
	))

	t.Run("segment_without_flight_is_skipped", flattenResponse(
		response(
			&qpxexpress.TripOption{
				Id:        "trip-1",
				SaleTotal: "USD100.00",
				Slice: []*qpxexpress.SliceInfo{{Segment: []*qpxexpress.SegmentInfo{
					{Leg: []*qpxexpress.LegInfo{{Origin: "BOS", Destination: "JFK", DepartureTime: "t0"}}},
					segment("B6", "5", "JFK", "SJU", "t1"),
				}}},
			},
		),
		map[int]FlattenedTrip{
			0: {
				ID:          "trip-1",
				Total:       "USD100.00",
				FlightCodes: []string{"B65"},
				Airports:    []string{"JFK", "SJU"},
				DepartTimes: []string{"t1"},
			},
		},
	))
}

func TestFlatten_PreservesOrder(t *testing.T) {
	const n = 7

	options := make([]*qpxexpress.TripOption, n)
	for i := range options {
		options[i] = &qpxexpress.TripOption{
			Id:        fmt.Sprintf("trip-%d", i),
			SaleTotal: fmt.Sprintf("USD%d.00", 900-i*100),
			Slice:     []*qpxexpress.SliceInfo{{Segment: []*qpxexpress.SegmentInfo{segment("B6", fmt.Sprint(i), "JFK", "BOS", "t")}}},
		}
	}

	got := Flatten(response(options...))
	if len(got) != n {
		t.Fatalf("expected %d trips, got %d", n, len(got))
	}

	for i := 0; i < n; i++ {
		trip, ok := got[i]
		if !ok {
			t.Fatalf("missing trip index %d", i)
		}

		if trip.ID != fmt.Sprintf("trip-%d", i) {
			t.Fatalf("index %d: expected trip-%d, got %s", i, i, trip.ID)
		}

		if len(trip.Airports) != 2*len(trip.FlightCodes) || len(trip.FlightCodes) != len(trip.DepartTimes) {
			t.Fatalf("index %d: lists not aligned: %+v", i, trip)
		}
	}
}

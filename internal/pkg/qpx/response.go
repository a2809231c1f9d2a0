package qpx

import (
	qpxexpress "google.golang.org/api/qpxexpress/v1"
)

// FlattenedTrip is one trip option reduced to parallel per-segment lists.
// FlightCodes[i] and DepartTimes[i] belong to Airports[2i] -> Airports[2i+1].
type FlattenedTrip struct {
	ID          string   `json:"id"`
	Total       string   `json:"total"`
	FlightCodes []string `json:"flight_code"`
	Airports    []string `json:"airports"`
	DepartTimes []string `json:"depart_times"`
}

// Flatten walks the trip options in response order, keyed by index. Only the
// first leg of each segment is read; segments without legs or flight info
// are skipped. The reply's kind markers are dropped.
func Flatten(resp *qpxexpress.TripsSearchResponse) map[int]FlattenedTrip {
	if resp == nil || resp.Trips == nil {
		return map[int]FlattenedTrip{}
	}

	options := resp.Trips.TripOption
	trips := make(map[int]FlattenedTrip, len(options))

	for i, option := range options {
		if option == nil {
			option = &qpxexpress.TripOption{}
		}

		trip := FlattenedTrip{
			ID:          option.Id,
			Total:       option.SaleTotal,
			FlightCodes: []string{},
			Airports:    []string{},
			DepartTimes: []string{},
		}

		for _, slice := range option.Slice {
			if slice == nil {
				continue
			}

			for _, segment := range slice.Segment {
				if segment == nil || segment.Flight == nil || len(segment.Leg) == 0 || segment.Leg[0] == nil {
					continue
				}

				leg := segment.Leg[0]
				trip.FlightCodes = append(trip.FlightCodes, segment.Flight.Carrier+segment.Flight.Number)
				trip.Airports = append(trip.Airports, leg.Origin, leg.Destination)
				trip.DepartTimes = append(trip.DepartTimes, leg.DepartureTime)
			}
		}

		trips[i] = trip
	}

	return trips
}

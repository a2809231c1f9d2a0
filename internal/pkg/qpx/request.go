package qpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	qpxexpress "google.golang.org/api/qpxexpress/v1"
)

const (
	DefaultSolutions = 25
	DayStart         = "00:00"
	DayEnd           = "23:59"
	DefaultCabin     = "coach"

	timeOfDayRangeKind = "qpxexpress#timeOfDayRange"
)

var validate = validator.New()

// SearchRequest is a validated one-way search. Trips is the body in the
// generated QPX Express shape. The generated SliceInput has no arrival
// window, so ArrivalTime travels next to it and is merged into the slice
// when the request is encoded.
type SearchRequest struct {
	Trips       *qpxexpress.TripsSearchRequest
	ArrivalTime *qpxexpress.TimeOfDayRange
}

// MarshalJSON encodes the body POSTed to the QPX search endpoint.
func (r SearchRequest) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(r.Trips)
	if err != nil {
		return nil, err
	}

	if r.ArrivalTime == nil {
		return payload, nil
	}

	var body map[string]map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}

	var slices []map[string]json.RawMessage
	if err := json.Unmarshal(body["request"]["slice"], &slices); err != nil {
		return nil, err
	}

	arrival, err := json.Marshal(r.ArrivalTime)
	if err != nil {
		return nil, err
	}

	for _, slice := range slices {
		slice["permittedArrivalTime"] = arrival
	}

	body["request"]["slice"], err = json.Marshal(slices)
	if err != nil {
		return nil, err
	}

	return json.Marshal(body)
}

// SearchOptions enumerates every tunable field of a search. Zero values are
// meaningful, so start from DefaultSearchOptions.
type SearchOptions struct {
	AdultCount            int      `validate:"gte=0"`
	ChildCount            int      `validate:"gte=0"`
	SeniorCount           int      `validate:"gte=0"`
	EarliestDepart        string   `validate:"datetime=15:04"`
	LatestDepart          string   `validate:"datetime=15:04"`
	EarliestArrive        string   `validate:"datetime=15:04"`
	LatestArrive          string   `validate:"datetime=15:04"`
	MaxPrice              int64    `validate:"gte=0"`
	Solutions             int      `validate:"gt=0"`
	PermittedCarriers     []string `validate:"dive,alphanum,len=2"`
	ForbiddenCarriers     []string `validate:"dive,alphanum,len=2"`
	Refundable            bool
	PreferredCabin        string `validate:"oneof=COACH PREMIUM_COACH BUSINESS FIRST"`
	MaxStops              *int   `validate:"omitempty,gte=0"`
	MaxConnectionDuration int64  `validate:"gt=0"`
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		AdultCount:            1,
		EarliestDepart:        DayStart,
		LatestDepart:          DayEnd,
		EarliestArrive:        DayStart,
		LatestArrive:          DayEnd,
		MaxPrice:              math.MaxInt64,
		Solutions:             DefaultSolutions,
		PermittedCarriers:     []string{},
		ForbiddenCarriers:     []string{},
		PreferredCabin:        DefaultCabin,
		MaxConnectionDuration: math.MaxInt64,
	}
}

// Option overrides a single field of SearchOptions.
type Option func(*SearchOptions)

func WithPassengers(adults, children, seniors int) Option {
	return func(o *SearchOptions) {
		o.AdultCount = adults
		o.ChildCount = children
		o.SeniorCount = seniors
	}
}

func WithAdults(n int) Option {
	return func(o *SearchOptions) { o.AdultCount = n }
}

func WithChildren(n int) Option {
	return func(o *SearchOptions) { o.ChildCount = n }
}

func WithSeniors(n int) Option {
	return func(o *SearchOptions) { o.SeniorCount = n }
}

// WithDepartureWindow limits departures to [earliest, latest], both HH:MM.
func WithDepartureWindow(earliest, latest string) Option {
	return func(o *SearchOptions) {
		o.EarliestDepart = earliest
		o.LatestDepart = latest
	}
}

// WithArrivalWindow limits arrivals to [earliest, latest], both HH:MM.
func WithArrivalWindow(earliest, latest string) Option {
	return func(o *SearchOptions) {
		o.EarliestArrive = earliest
		o.LatestArrive = latest
	}
}

func WithMaxPrice(price int64) Option {
	return func(o *SearchOptions) { o.MaxPrice = price }
}

func WithSolutions(n int) Option {
	return func(o *SearchOptions) { o.Solutions = n }
}

func WithPermittedCarriers(codes ...string) Option {
	return func(o *SearchOptions) { o.PermittedCarriers = codes }
}

func WithForbiddenCarriers(codes ...string) Option {
	return func(o *SearchOptions) { o.ForbiddenCarriers = codes }
}

func WithRefundable(refundable bool) Option {
	return func(o *SearchOptions) { o.Refundable = refundable }
}

func WithPreferredCabin(cabin string) Option {
	return func(o *SearchOptions) { o.PreferredCabin = cabin }
}

func WithMaxStops(n int) Option {
	return func(o *SearchOptions) { o.MaxStops = &n }
}

// WithMaxConnectionDuration sets the longest allowed layover, in minutes.
func WithMaxConnectionDuration(minutes int64) Option {
	return func(o *SearchOptions) { o.MaxConnectionDuration = minutes }
}

type searchInput struct {
	Origin      string `validate:"required,len=3,alpha"`
	Destination string `validate:"required,len=3,alpha"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Options     SearchOptions
}

// NewSearchRequest builds a one-way search from depart to arrive on date
// (YYYY-MM-DD), overlaying opts onto DefaultSearchOptions.
func NewSearchRequest(arrive, depart, date string, opts ...Option) (SearchRequest, error) {
	options := DefaultSearchOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return BuildSearchRequest(arrive, depart, date, options)
}

// BuildSearchRequest maps options field by field onto the wire request and
// validates the result.
func BuildSearchRequest(arrive, depart, date string, options SearchOptions) (SearchRequest, error) {
	options.PreferredCabin = strings.ToUpper(options.PreferredCabin)
	options.PermittedCarriers = upperAll(options.PermittedCarriers)
	options.ForbiddenCarriers = upperAll(options.ForbiddenCarriers)

	in := searchInput{
		Origin:      strings.ToUpper(depart),
		Destination: strings.ToUpper(arrive),
		Date:        date,
		Options:     options,
	}

	if err := validateInput(in); err != nil {
		return SearchRequest{}, err
	}

	slice := &qpxexpress.SliceInput{
		Origin:                 in.Origin,
		Destination:            in.Destination,
		Date:                   in.Date,
		MaxConnectionDuration:  options.MaxConnectionDuration,
		PreferredCabin:         options.PreferredCabin,
		PermittedCarrier:       options.PermittedCarriers,
		ProhibitedCarrier:      options.ForbiddenCarriers,
		PermittedDepartureTime: timeOfDay(options.EarliestDepart, options.LatestDepart),
		ForceSendFields:        []string{"PermittedCarrier", "ProhibitedCarrier"},
	}

	if options.MaxStops != nil {
		slice.MaxStops = int64(*options.MaxStops)
		slice.ForceSendFields = append(slice.ForceSendFields, "MaxStops")
	}

	return SearchRequest{
		Trips: &qpxexpress.TripsSearchRequest{
			Request: &qpxexpress.TripOptionsRequest{
				Passengers: &qpxexpress.PassengerCounts{
					AdultCount:      int64(options.AdultCount),
					ChildCount:      int64(options.ChildCount),
					SeniorCount:     int64(options.SeniorCount),
					ForceSendFields: []string{"AdultCount", "ChildCount", "SeniorCount"},
				},
				Slice:           []*qpxexpress.SliceInput{slice},
				MaxPrice:        strconv.FormatInt(options.MaxPrice, 10),
				Solutions:       int64(options.Solutions),
				Refundable:      options.Refundable,
				ForceSendFields: []string{"Refundable"},
			},
		},
		ArrivalTime: timeOfDay(options.EarliestArrive, options.LatestArrive),
	}, nil
}

// validateInput reports the first invalid field as ErrInvalidRequest.
func validateInput(in searchInput) error {
	if err := validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fe := ve[0]
			return ErrInvalidRequest.WithCause(
				fmt.Errorf("%s failed on the '%s' rule", fe.Namespace(), fe.Tag()))
		}

		return ErrInvalidRequest.WithCause(err)
	}

	if in.Options.AdultCount+in.Options.ChildCount+in.Options.SeniorCount == 0 {
		return ErrInvalidRequest.WithCause(errors.New("at least one passenger is required"))
	}

	return nil
}

func timeOfDay(earliest, latest string) *qpxexpress.TimeOfDayRange {
	return &qpxexpress.TimeOfDayRange{
		Kind:         timeOfDayRangeKind,
		EarliestTime: earliest,
		LatestTime:   latest,
	}
}

func upperAll(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = strings.ToUpper(c)
	}

	return out
}

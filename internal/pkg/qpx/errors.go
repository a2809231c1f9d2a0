package qpx

import (
	"net/http"

	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/exception"
)

// ErrSearchAPI is returned when the QPX response body carries an Error field.
var ErrSearchAPI = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Message:    "returned value has errors: are the request fields valid?",
}

var ErrInvalidRequest = exception.ApplicationError{
	StatusCode: http.StatusBadRequest,
	Message:    "invalid search request",
}

var ErrRateLimitExceeded = exception.ApplicationError{
	StatusCode: http.StatusTooManyRequests,
	Message:    "qpx rate limit exceeded",
}

var ErrUpstreamUnavailable = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Message:    "qpx api internal error or temporary unavailable",
}

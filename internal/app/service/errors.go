package service

import (
	"net/http"

	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/exception"
)

var ErrNoTripsFound = exception.ApplicationError{
	Message:    "no trips found",
	StatusCode: http.StatusNotFound,
}

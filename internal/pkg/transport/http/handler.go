package http

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/ijalalfrz/qpx-trip-search/internal/pkg/exception"
)

// MakeHandlerFunc serves an endpoint through go-kit, encoding failures with
// ErrorResponse.
func MakeHandlerFunc(
	e endpoint.Endpoint,
	dec kithttp.DecodeRequestFunc,
	enc kithttp.EncodeResponseFunc,
) http.HandlerFunc {
	return kithttp.NewServer(
		e,
		dec,
		enc,
		kithttp.ServerErrorEncoder(ErrorResponse),
	).ServeHTTP
}

// DecodeRequest decodes the JSON body into a new T and runs its Bind hook.
func DecodeRequest[T any, PT interface {
	*T
	render.Binder
}](_ context.Context, r *http.Request) (interface{}, error) {
	req := PT(new(T))

	if err := render.Bind(r, req); err != nil {
		return nil, exception.ApplicationError{
			StatusCode: http.StatusBadRequest,
			Message:    "invalid request body",
			Cause:      err,
		}
	}

	return req, nil
}

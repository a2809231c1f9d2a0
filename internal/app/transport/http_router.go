package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/config"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/dto"
	"github.com/ijalalfrz/qpx-trip-search/internal/app/endpoints"
	httptransport "github.com/ijalalfrz/qpx-trip-search/internal/pkg/transport/http"
)

// MakeHTTPRouter builds the HTTP router with all the service endpoints.
func MakeHTTPRouter(
	cfg *config.Config,
	endpts endpoints.Endpoints,
) *chi.Mux {
	// Initialize Router
	router := chi.NewRouter()

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1/trips", func(router chi.Router) {
		router.Use(
			httptransport.RequestID(),
			httptransport.CORSMiddleware(cfg.HTTP.CORSAllowedOrigins),
			httptransport.Recoverer(slog.Default()),
			render.SetContentType(render.ContentTypeJSON),
		)

		router.Post("/search", httptransport.MakeHandlerFunc(
			endpts.SearchEndpoint.SearchTrips,
			httptransport.DecodeRequest[dto.SearchTripRequest],
			httptransport.ResponseWithBody,
		))
	})

	return router
}

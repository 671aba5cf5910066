package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-relay/internal/observability"
)

// NewRouter wires the relay routes. CORS wraps the router so preflight
// requests are answered before route matching.
func NewRouter(h *Handler, logger *zap.Logger, corsOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/", h.GetRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/weather/{location}/{date}", h.GetWeather).Methods(http.MethodGet)

	return CORSMiddleware(corsOrigins...)(router)
}

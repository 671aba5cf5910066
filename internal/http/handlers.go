package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-relay/internal/client"
	"github.com/kjstillabower/weather-relay/internal/lifecycle"
	"github.com/kjstillabower/weather-relay/internal/service"
)

// HealthConfig holds optional cache probes for the health handler.
type HealthConfig struct {
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
	// CacheSize, when set, reports the number of cached lookups. Used when backend is in_memory.
	CacheSize func() int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	forwarder    *service.Forwarder
	healthConfig *HealthConfig
	logger       *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(forwarder *service.Forwarder, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		forwarder:    forwarder,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetRoot handles GET /.
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is running"})
}

// GetWeather handles GET /weather/{location}/{date}. The lookup result is always
// written with 200, including upstream error records; callers inspect the body
// for an "error" field. Only an unreachable upstream changes the status.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := h.forwarder.Lookup(r.Context(), vars["location"], vars["date"])
	if err != nil {
		writeUpstreamFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, statusCode := "healthy", http.StatusOK
	if lifecycle.IsShuttingDown() {
		status, statusCode = "shutting-down", http.StatusServiceUnavailable
	}

	checks := make(map[string]string)
	resp := map[string]interface{}{
		"service":   "weather-relay",
		"version":   "dev",
		"uptime":    lifecycle.Uptime().Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if err := h.healthConfig.CachePing(); err != nil {
			checks["cache"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
			}
			h.logger.Warn("cache ping failed", zap.Error(err))
		} else {
			checks["cache"] = "healthy"
		}
	}
	if h.healthConfig != nil && h.healthConfig.CacheSize != nil {
		checks["cache"] = "healthy"
		resp["cacheEntries"] = h.healthConfig.CacheSize()
	}
	resp["status"] = status
	resp["checks"] = checks
	writeJSON(w, statusCode, resp)
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID, _ := r.Context().Value("correlation_id").(string)
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeUpstreamFault writes 502 Bad Gateway when the provider could not be reached
// or answered with unreadable JSON.
func writeUpstreamFault(w http.ResponseWriter, r *http.Request, err error) {
	code, message := "UPSTREAM_UNREACHABLE", "Unable to reach weather provider"
	if errors.Is(err, client.ErrMalformedPayload) {
		code, message = "UPSTREAM_MALFORMED", "Weather provider returned unreadable data"
	}
	writeError(w, r, http.StatusBadGateway, code, message)
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Warn("upstream fault", zap.String("category", string(client.CategorizeError(err))), zap.Error(err))
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/leapscope/internal/api/handlers"
	"github.com/wonny/leapscope/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	scans *handlers.ScanHandler,
	positions *handlers.PositionHandler,
	alerts *handlers.AlertHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Scan history
	api.HandleFunc("/scans", scans.Recent).Methods("GET")
	api.HandleFunc("/scans/latest", scans.Latest).Methods("GET")
	api.HandleFunc("/scans/{id}", scans.Get).Methods("GET")
	api.HandleFunc("/scans/{id}/comparison", scans.Comparison).Methods("GET")
	api.HandleFunc("/scan", scans.Trigger).Methods("POST")

	// Portfolio
	api.HandleFunc("/positions", positions.List).Methods("GET")
	api.HandleFunc("/positions", positions.Create).Methods("POST")
	api.HandleFunc("/positions/{id}", positions.Get).Methods("GET")
	api.HandleFunc("/positions/{id}/close", positions.Close).Methods("POST")
	api.HandleFunc("/positions/{id}/roll", positions.Roll).Methods("POST")
	api.HandleFunc("/positions/{id}/refresh", positions.Refresh).Methods("POST")
	api.HandleFunc("/portfolio/summary", positions.Summary).Methods("GET")
	api.HandleFunc("/portfolio/signals", positions.Signals).Methods("GET")

	// Alerts and signal validation
	api.HandleFunc("/alerts", alerts.Recent).Methods("GET")
	api.HandleFunc("/alerts/{id}/ack", alerts.Acknowledge).Methods("POST")
	api.HandleFunc("/signals/validation", alerts.Validation).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "leapscope-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/mweber/quotesd/internal/api/handlers"
	"github.com/mweber/quotesd/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	securityHandler *handlers.SecurityHandler,
	exchangeHandler *handlers.ExchangeHandler,
	quoteHandler *handlers.QuoteHandler,
	evalHandler *handlers.EvaluationHandler,
	ingestLimiter *rate.Limiter,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Security registry
	api.HandleFunc("/securities", securityHandler.GetAll).Methods("GET")
	api.HandleFunc("/securities", securityHandler.Create).Methods("POST")
	api.HandleFunc("/securities/{isin}", securityHandler.GetOne).Methods("GET")
	api.HandleFunc("/securities/{isin}", securityHandler.Update).Methods("PUT")

	// Exchange registry
	api.HandleFunc("/exchanges", exchangeHandler.GetAll).Methods("GET")
	api.HandleFunc("/exchanges", exchangeHandler.Create).Methods("POST")
	api.HandleFunc("/exchanges/{id}", exchangeHandler.GetOne).Methods("GET")
	api.HandleFunc("/exchanges/{id}", exchangeHandler.Update).Methods("PUT")

	// Quotes
	api.HandleFunc("/quotes", quoteHandler.Get).Methods("GET")
	api.HandleFunc("/quotes/counts", quoteHandler.GetCounts).Methods("GET")
	api.Handle("/quotes", rateLimitMiddleware(ingestLimiter)(http.HandlerFunc(quoteHandler.Ingest))).Methods("POST")

	// Evaluation
	api.HandleFunc("/evaluation/performance", evalHandler.GetPerformance).Methods("GET")
	api.HandleFunc("/evaluation/rsl", evalHandler.GetRSL).Methods("GET")

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
		"service": "quotesd",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
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

// rateLimitMiddleware caps the ingestion rate; a nil limiter disables it
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Ingestion rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

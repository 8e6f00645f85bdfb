package api

import (
	"github.com/gorilla/mux"

	"agriprice-lab/internal/observability"
)

// SetupRoutes configures all API routes.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health and introspection
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/status", handler.Status).Methods("GET")
	r.Handle("/metrics", observability.Handler()).Methods("GET")

	// Forecast routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", handler.Predict).Methods("POST")
	api.HandleFunc("/products", handler.GetProducts).Methods("GET")
	api.HandleFunc("/cities", handler.GetCities).Methods("GET")

	return r
}

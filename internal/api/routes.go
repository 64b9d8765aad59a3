package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Derived and raw bars
	api.HandleFunc("/bars", handler.GetBars).Methods("GET")
	api.HandleFunc("/bars", handler.IngestBars).Methods("POST")

	// Settlement calendar
	api.HandleFunc("/settlement/{date}", handler.GetSettlement).Methods("GET")

	// Contract routes
	api.HandleFunc("/contracts", handler.GetAllContracts).Methods("GET")
	api.HandleFunc("/contracts", handler.AddContract).Methods("POST")
	api.HandleFunc("/contracts/{code}", handler.GetContract).Methods("GET")
	api.HandleFunc("/contracts/{code}", handler.RemoveContract).Methods("DELETE")

	return r
}

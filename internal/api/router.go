package api

import (
	"net/http"
	"swissgrid-converter/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(converter handlers.ConversionService, health *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	convHandler := &handlers.ConversionHandler{Converter: converter}
	if health == nil {
		health = &handlers.HealthHandler{}
	}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/conversions", convHandler.Convert)
	mux.HandleFunc("/checks", convHandler.Check)

	return loggingMiddleware(mux)
}

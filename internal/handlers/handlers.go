// Package handlers implements the HTTP front ends of the RAG application.
package handlers

import (
	"encoding/json"
	"net/http"

	"ragdemo/internal/service"
)

// ServiceProvider hands out the query service, or the reason it is unavailable.
// *app.App implements it.
type ServiceProvider interface {
	QueryService() (service.QueryService, error)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

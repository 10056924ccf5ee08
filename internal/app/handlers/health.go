package handlers

import (
	"log/slog"
	"net/http"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthHandler обрабатывает запрос GET /api/health
func HealthHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, log, http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running"})
	}
}

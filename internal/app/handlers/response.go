package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/storefront/internal/service"
)

var validate = validator.New()

// ErrorResponse: тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse: тело ответа с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError сопоставляет ошибку бизнес-логики с HTTP-статусом.
// Текст внутренних ошибок клиенту не отдаётся, только логируется.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	msg, ok := service.PublicMessage(err)
	if !ok {
		logger.Error("internal error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyCart):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	logger.Info("request rejected", slog.Int("status", status), slog.String("reason", msg))
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, msg string) {
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// decodeAndValidate разбирает JSON-тело и проверяет теги validate
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

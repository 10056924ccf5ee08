package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/service"
)

// AdminLoginRequest представляет структуру запроса для входа администратора
type AdminLoginRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// AdminLoginResponse представляет структуру ответа с JWT-токеном
type AdminLoginResponse struct {
	Token string `json:"token"`
}

// AdminLoginHandler обрабатывает запрос POST /api/admin/login
func AdminLoginHandler(log *slog.Logger, admin service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminLoginHandler"
		logger := log.With(slog.String("op", op))

		var req AdminLoginRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Secret is required")
			return
		}

		token, err := admin.Login(r.Context(), req.Secret)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, AdminLoginResponse{Token: token})
	}
}

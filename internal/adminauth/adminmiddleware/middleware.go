package adminmiddleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Authorizer проверяет значение заголовка Authorization.
type Authorizer interface {
	Authorize(header string) bool
}

// New создаёт middleware, пропускающее только запросы администратора.
func New(log *slog.Logger, auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authorize(r.Header.Get("Authorization")) {
				log.Warn("admin authorization failed",
					slog.String("op", "adminmiddleware"),
					slog.String("url", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

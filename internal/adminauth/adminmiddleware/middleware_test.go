package adminmiddleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linemk/storefront/internal/adminauth"
	"github.com/linemk/storefront/internal/adminauth/adminmiddleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler() http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := adminauth.New("admin123", "", "jwtsecret", time.Hour)
	return adminmiddleware.New(log, auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminMiddleware_MissingAuthorization(t *testing.T) {
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rr.Body.String())
}

func TestAdminMiddleware_WrongSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminMiddleware_Secret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer admin123")
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminMiddleware_Token(t *testing.T) {
	token, err := adminauth.New("admin123", "", "jwtsecret", time.Hour).NewToken()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

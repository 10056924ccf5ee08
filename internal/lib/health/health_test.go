package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linemk/storefront/internal/lib/health"
	"github.com/stretchr/testify/assert"
)

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	h := health.New()

	rr := httptest.NewRecorder()
	h.ReadyEndpoint(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"down"`)

	h.SetReady(true)
	rr = httptest.NewRecorder()
	h.ReadyEndpoint(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := health.New()
	h.AddReadinessCheck("database", 50*time.Millisecond, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)
	defer h.Stop()

	assert.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	rr := httptest.NewRecorder()
	h.ReadyEndpoint(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "database")
}

func TestReadyEndpoint_RecoversAfterFailure(t *testing.T) {
	h := health.New()
	var calls atomic.Int32
	h.AddReadinessCheck("database", 50*time.Millisecond, func(ctx context.Context) error {
		// одна ошибка посреди успешных проверок
		if calls.Add(1) == 2 {
			return errors.New("timeout")
		}
		return nil
	})
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)
	defer h.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_SetReadyFalse(t *testing.T) {
	h := health.New()
	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	rr := httptest.NewRecorder()
	h.ReadyEndpoint(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestLiveEndpoint(t *testing.T) {
	h := health.New()

	rr := httptest.NewRecorder()
	h.LiveEndpoint(rr, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"up"`)
}

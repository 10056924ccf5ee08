package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	hc "github.com/alexliesenfeld/health"
)

// CheckFunc возвращает nil, если проверяемый компонент работает.
type CheckFunc func(ctx context.Context) error

// проверка считается упавшей после стольких ошибок подряд
const failureThreshold = 3

var errNotReady = errors.New("service is not ready")

// Health хранит флаг готовности сервиса и фоновые проверки зависимостей (БД).
// /livez отвечает, пока жив процесс, /readyz учитывает флаг и проверки.
type Health struct {
	ready atomic.Bool

	mu      sync.Mutex
	checks  []hc.Check
	checker hc.Checker
	readyz  http.Handler

	// до Start готовность определяется только флагом
	flagOnly hc.Checker
	liveness http.Handler
}

func New() *Health {
	h := &Health{
		liveness: hc.NewHandler(hc.NewChecker()),
	}
	h.flagOnly = hc.NewChecker(hc.WithDisabledCache(), hc.WithCheck(h.readinessCheck()))
	return h
}

func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checks = append(h.checks, hc.Check{
		Name:               name,
		Timeout:            timeout,
		Check:              fn,
		MaxContiguousFails: failureThreshold,
	})
}

// Start запускает периодические проверки; они останавливаются по Stop или отмене ctx.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	if h.checker != nil {
		h.mu.Unlock()
		return
	}
	h.checker = hc.NewChecker(h.options(interval)...)
	h.readyz = hc.NewHandler(h.checker)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.Stop()
	}()
}

func (h *Health) options(interval time.Duration) []hc.CheckerOption {
	opts := []hc.CheckerOption{
		hc.WithDisabledCache(),
		hc.WithCheck(h.readinessCheck()),
	}
	for _, c := range h.checks {
		opts = append(opts, hc.WithPeriodicCheck(interval, 0, c))
	}
	return opts
}

func (h *Health) readinessCheck() hc.Check {
	return hc.Check{
		Name: "readiness",
		Check: func(context.Context) error {
			if !h.ready.Load() {
				return errNotReady
			}
			return nil
		},
	}
}

func (h *Health) current() (hc.Checker, http.Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.checker == nil {
		return h.flagOnly, nil
	}
	return h.checker, h.readyz
}

func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.checker != nil {
		h.checker.Stop()
		h.checker = nil
		h.readyz = nil
	}
}

// SetReady выставляется после инициализации и снимается при остановке сервера.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) IsReady() bool {
	checker, _ := h.current()
	return checker.Check(context.Background()).Status == hc.StatusUp
}

// LiveEndpoint отвечает 200, пока процесс обслуживает запросы.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.liveness.ServeHTTP(w, r)
}

// ReadyEndpoint отвечает 503, если сервис не готов или какая-то проверка падает.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	checker, readyz := h.current()
	if readyz == nil {
		readyz = hc.NewHandler(checker)
	}
	readyz.ServeHTTP(w, r)
}

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/storefront/internal/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const meterName = "github.com/linemk/storefront"

// Metrics: счётчики приложения. Нулевой указатель допустим: все методы ничего не делают.
type Metrics struct {
	ordersPlaced        metric.Int64Counter
	orderRevenue        metric.Float64Counter
	stockRejections     metric.Int64Counter
	httpRequests        metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
}

// Setup создаёт провайдер метрик. При выключенных метриках возвращает noop-провайдер,
// иначе периодически экспортирует метрики по OTLP/HTTP.
func Setup(ctx context.Context, cfg config.MetricsConfig) (*Metrics, func(context.Context) error, error) {
	if !cfg.Enabled {
		m, err := New(noop.NewMeterProvider().Meter(meterName))
		return m, func(context.Context) error { return nil }, err
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
	)

	m, err := New(provider.Meter(meterName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}
	return m, provider.Shutdown, nil
}

// New регистрирует инструменты в переданном meter.
func New(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.ordersPlaced, err = meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Number of orders placed")); err != nil {
		return nil, fmt.Errorf("failed to create orders_placed_total: %w", err)
	}
	if m.orderRevenue, err = meter.Float64Counter("order_revenue_total",
		metric.WithDescription("Sum of placed order totals")); err != nil {
		return nil, fmt.Errorf("failed to create order_revenue_total: %w", err)
	}
	if m.stockRejections, err = meter.Int64Counter("stock_rejections_total",
		metric.WithDescription("Order placements rejected for insufficient stock")); err != nil {
		return nil, fmt.Errorf("failed to create stock_rejections_total: %w", err)
	}
	if m.httpRequests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("http_request_duration_ms",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_ms: %w", err)
	}
	return &m, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context, total decimal.Decimal, lines int) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.Int("order.lines", lines)))
	m.orderRevenue.Add(ctx, total.InexactFloat64())
}

func (m *Metrics) StockRejected(ctx context.Context, productID string) {
	if m == nil {
		return
	}
	m.stockRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", productID)))
}

// Middleware записывает количество и длительность запросов по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		m.httpRequests.Add(r.Context(), 1, attrs)
		m.httpRequestDuration.Record(r.Context(), float64(time.Since(start).Milliseconds()), attrs)
	})
}

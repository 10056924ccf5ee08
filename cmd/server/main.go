package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/storefront/internal/adminauth"
	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/lib/health"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env, cfg.LogLevel)
	log.Info("starting app", slog.String("env", cfg.Env))

	if err := run(log, cfg); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server gracefully stopped")
}

// run поднимает зависимости и сервер; отложенные закрытия выполняются до выхода из процесса
func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to initialize app")
	}
	defer application.DB.Close()

	appMetrics, shutdownMetrics, err := metrics.Setup(ctx, cfg.Metrics)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to initialize metrics")
	}

	// реализация слоев по работе с БД по каждому направлению
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	adminAuth := adminauth.New(
		cfg.Admin.Secret,
		cfg.Admin.SecretHash,
		cfg.JWT.Secret,
		time.Duration(cfg.Admin.TokenTTL)*time.Minute,
	)

	services := app.Services{
		Catalog: service.NewCatalogService(log, productRepo),
		Carts:   service.NewCartService(log, application.DB, cartRepo, productRepo),
		Orders: service.NewOrderService(log, application.DB, cartRepo, productRepo, orderRepo,
			service.NewStatusPolicy(cfg.Orders.StrictTransitions), appMetrics),
		Admin: service.NewAdminService(log, adminAuth),
	}

	probes := health.New()
	probes.AddReadinessCheck("database", 2*time.Second, application.DB.PingContext)
	probes.Start(ctx, 10*time.Second)
	defer probes.Stop()

	srv := &http.Server{
		Addr: cfg.HTTPServer.Address,
		Handler: app.NewRouter(log, services, app.RouterOptions{
			AllowOrigins: cfg.CORS.AllowOrigins,
			AdminAuth:    adminAuth,
			Health:       probes,
			Metrics:      appMetrics,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		probes.SetReady(true)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return pkgerrors.Wrap(err, "server error")
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")
		probes.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return pkgerrors.Wrap(err, "server shutdown failed")
		}
		if err := shutdownMetrics(shutdownCtx); err != nil {
			log.Warn("metrics shutdown failed", slog.Any("error", err))
		}
		return nil
	})

	return g.Wait()
}

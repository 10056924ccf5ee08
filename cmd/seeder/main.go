package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// sampleProducts: демонстрационный каталог
var sampleProducts = []service.CreateProductInput{
	{
		Name:        "Wireless Headphones",
		Description: "Premium wireless headphones with noise cancellation and 30-hour battery life. Perfect for music lovers and professionals.",
		Price:       decimal.RequireFromString("199.99"),
		Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500",
		Category:    "electronics",
		Stock:       50,
	},
	{
		Name:        "Smart Watch",
		Description: "Feature-rich smartwatch with fitness tracking, heart rate monitor, and smartphone notifications.",
		Price:       decimal.RequireFromString("299.99"),
		Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500",
		Category:    "electronics",
		Stock:       30,
	},
	{
		Name:        "Running Shoes",
		Description: "Comfortable and durable running shoes with advanced cushioning technology for maximum performance.",
		Price:       decimal.RequireFromString("129.99"),
		Image:       "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=500",
		Category:    "fashion",
		Stock:       75,
	},
	{
		Name:        "Leather Jacket",
		Description: "Classic leather jacket with modern design. Perfect for any season and occasion.",
		Price:       decimal.RequireFromString("249.99"),
		Image:       "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=500",
		Category:    "fashion",
		Stock:       25,
	},
	{
		Name:        "Desk Lamp",
		Description: "Modern LED desk lamp with adjustable brightness and color temperature. Perfect for home office.",
		Price:       decimal.RequireFromString("49.99"),
		Image:       "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=500",
		Category:    "home",
		Stock:       60,
	},
	{
		Name:        "Backpack",
		Description: "Durable and spacious backpack with multiple compartments. Perfect for travel and daily use.",
		Price:       decimal.RequireFromString("79.99"),
		Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=500",
		Category:    "fashion",
		Stock:       45,
	},
}

func main() {
	var keep bool
	flag.BoolVar(&keep, "keep", false, "do not delete existing products before seeding")

	cfg := config.MustLoad()
	log := logger.SetupLogger(cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	productRepo := storage.NewProductRepository(application.DB)
	catalog := service.NewCatalogService(log, productRepo)

	if !keep {
		deleted, err := productRepo.DeleteAllProducts(ctx)
		if err != nil {
			panic(errors.Wrap(err, "failed to clear products"))
		}
		log.Info("cleared existing products", slog.Int64("deleted", deleted))
	}

	for _, in := range sampleProducts {
		if _, err := catalog.CreateProduct(ctx, in); err != nil {
			panic(errors.Wrapf(err, "failed to insert product %q", in.Name))
		}
	}
	log.Info("database seeded", slog.Int("products", len(sampleProducts)))
}

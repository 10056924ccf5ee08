package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
	"github.com/shopspring/decimal"
)

// CreateProductRequest: тело POST /api/admin/products
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Image       string           `json:"image" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Stock       *int             `json:"stock" validate:"required"`
}

// UpdateProductRequest: тело PUT /api/admin/products/{id}; отсутствующие поля не меняются
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Version     *int64           `json:"version,omitempty"`
}

// ListProductsHandler обрабатывает запрос GET /api/products
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalog.ListProducts(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает запрос GET /api/products/{id}
func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		product, err := catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// CreateProductHandler обрабатывает запрос POST /api/admin/products
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Missing required fields")
			return
		}

		product, err := catalog.CreateProduct(r.Context(), service.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       *req.Price,
			Image:       req.Image,
			Category:    req.Category,
			Stock:       *req.Stock,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// UpdateProductHandler обрабатывает запрос PUT /api/admin/products/{id}
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		var req UpdateProductRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Invalid request body")
			return
		}

		product, err := catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), models.ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Image:       req.Image,
			Category:    req.Category,
			Stock:       req.Stock,
			Version:     req.Version,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает запрос DELETE /api/admin/products/{id}
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		if err := catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/storefront/internal/service"
)

// AddCartItemRequest: тело POST /api/cart/{sessionId}/items
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// UpdateCartItemRequest: тело PUT /api/cart/{sessionId}/items/{itemId}.
// Количество проверяет сервис, чтобы ответ был одинаковым для 0 и отрицательных значений.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCartHandler обрабатывает запрос GET /api/cart/{sessionId}; корзина создаётся при первом обращении
func GetCartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		cart, err := carts.GetOrCreate(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// AddCartItemHandler обрабатывает запрос POST /api/cart/{sessionId}/items
func AddCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartItemHandler"
		logger := log.With(slog.String("op", op))

		var req AddCartItemRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Invalid product ID or quantity")
			return
		}

		cart, err := carts.AddItem(r.Context(), chi.URLParam(r, "sessionId"), req.ProductID, req.Quantity)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// UpdateCartItemHandler обрабатывает запрос PUT /api/cart/{sessionId}/items/{itemId}
func UpdateCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		var req UpdateCartItemRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Invalid quantity")
			return
		}

		cart, err := carts.UpdateItem(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"), req.Quantity)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// RemoveCartItemHandler обрабатывает запрос DELETE /api/cart/{sessionId}/items/{itemId}
func RemoveCartItemHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		cart, err := carts.RemoveItem(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "itemId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

// ClearCartHandler обрабатывает запрос DELETE /api/cart/{sessionId}
func ClearCartHandler(log *slog.Logger, carts service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		cart, err := carts.Clear(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, cart)
	}
}

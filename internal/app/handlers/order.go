package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/storefront/internal/service"
)

// PlaceOrderRequest: тело POST /api/orders
type PlaceOrderRequest struct {
	SessionID       string `json:"sessionId" validate:"required"`
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	ShippingAddress string `json:"shippingAddress" validate:"required"`
}

// SetStatusRequest: тело PUT /api/admin/orders/{id}/status
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PlaceOrderHandler обрабатывает запрос POST /api/orders
func PlaceOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		var req PlaceOrderRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			if invalidEmail(err) {
				badRequest(w, logger, "Invalid email address")
				return
			}
			badRequest(w, logger, "Missing required fields")
			return
		}

		order, err := orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
			SessionID:       req.SessionID,
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{id}
func GetOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		order, err := orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// ListOrdersHandler обрабатывает запрос GET /api/admin/orders
func ListOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		list, err := orders.ListOrders(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// SetOrderStatusHandler обрабатывает запрос PUT /api/admin/orders/{id}/status
func SetOrderStatusHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		var req SetStatusRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			badRequest(w, logger, "Invalid status")
			return
		}

		order, err := orders.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// invalidEmail: адрес передан, но не прошёл проверку формата
func invalidEmail(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() != "CustomerEmail" || fe.Tag() != "email" {
			return false
		}
	}
	return len(verrs) > 0
}

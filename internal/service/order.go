package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/lib/metrics"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// PlaceOrderRequest: данные покупателя для оформления заказа из корзины.
type PlaceOrderRequest struct {
	SessionID       string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
}

// OrderService определяет операции с заказами.
type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	SetStatus(ctx context.Context, id string, status string) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	policy      StatusPolicy
	metrics     *metrics.Metrics
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	cartRepo storage.CartStorage,
	productRepo storage.ProductStorage,
	orderRepo storage.OrderStorage,
	policy StatusPolicy,
	m *metrics.Metrics,
) OrderService {
	if policy == nil {
		policy = NewStatusPolicy(false)
	}
	return &orderService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		policy:      policy,
		metrics:     m,
	}
}

// PlaceOrder оформляет заказ из корзины одной транзакцией:
// сначала проверяется остаток по всем строкам, затем списывается остаток,
// создаётся заказ и очищается корзина. При любой ошибке ничего не меняется.
func (s *orderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.String("sessionID", req.SessionID))

	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" || strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Missing required fields"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	cart, err := s.cartRepo.LockCartBySessionIDTx(ctx, tx, req.SessionID)
	if err != nil {
		rollback(logger, tx)
		switch {
		case errors.Is(err, storage.ErrCartNotFound):
			return nil, fmt.Errorf("%s: %w", op, newError(ErrEmptyCart, "Cart is empty"))
		case errors.Is(err, storage.ErrLocked):
			logger.Warn("cart is locked by another request")
			return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, "Cart is being modified, please retry"))
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	items, err := s.cartRepo.LockCartLinesTx(ctx, tx, cart.ID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrLocked) {
			logger.Warn("products are locked by another order")
			return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, "Cart is being modified, please retry"))
		}
		logger.Error("failed to load cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load cart lines: %w", op, err)
	}
	if len(items) == 0 {
		rollback(logger, tx)
		return nil, fmt.Errorf("%s: %w", op, newError(ErrEmptyCart, "Cart is empty"))
	}

	// Фаза 1: проверяем все строки до любых изменений
	for _, item := range items {
		if item.Product == nil || item.Product.Stock < item.Quantity {
			rollback(logger, tx)
			return nil, s.stockError(ctx, op, logger, item)
		}
	}

	order := &models.Order{
		Items:           make([]models.OrderLine, 0, len(items)),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Status:          models.StatusPending,
	}
	total := decimal.Zero
	for _, item := range items {
		line := models.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		}
		total = total.Add(line.Subtotal())
		order.Items = append(order.Items, line)
	}
	order.TotalAmount = total

	// Фаза 2: условное списание остатка, заказ, очистка корзины
	for _, item := range items {
		if err := s.productRepo.DecrementProductStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			rollback(logger, tx)
			if errors.Is(err, storage.ErrInsufficientStock) {
				return nil, s.stockError(ctx, op, logger, item)
			}
			logger.Error("failed to decrement stock", slog.String("productID", item.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
		}
	}

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.ClearCartTx(ctx, tx, cart.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cartRepo.TouchCartTx(ctx, tx, cart.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to touch cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.metrics.OrderPlaced(ctx, order.TotalAmount, len(order.Items))
	logger.Info("order placed",
		slog.String("orderID", order.ID),
		slog.String("total", order.TotalAmount.String()),
		slog.Int("lines", len(order.Items)),
	)

	placed, err := s.orderRepo.GetOrderByID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to reload order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reload order: %w", op, err)
	}
	return placed, nil
}

func (s *orderService) stockError(ctx context.Context, op string, logger *slog.Logger, item models.CartItem) error {
	name := item.ProductID
	if item.Product != nil {
		name = item.Product.Name
	}
	logger.Warn("insufficient stock", slog.String("productID", item.ProductID), slog.Int("quantity", item.Quantity))
	s.metrics.StockRejected(ctx, item.ProductID)
	return fmt.Errorf("%s: %w", op, &InsufficientStockError{ProductID: item.ProductID, ProductName: name})
}

// GetOrder возвращает заказ с данными товаров
func (s *orderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"

	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Order not found"))
	}
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Order not found"))
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.String("orderID", id), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// SetStatus меняет статус заказа. Допустимость перехода решает StatusPolicy.
func (s *orderService) SetStatus(ctx context.Context, id string, status string) (*models.Order, error) {
	const op = "service.OrderService.SetStatus"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", id), slog.String("status", status))

	next := models.OrderStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Invalid status"))
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allowed(order.Status, next) {
		logger.Warn("status transition denied", slog.String("from", string(order.Status)))
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Invalid status transition"))
	}
	if order.Status == next {
		return order, nil
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, next); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Order not found"))
		}
		logger.Error("failed to update order status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("order status updated", slog.String("from", string(order.Status)))
	return s.GetOrder(ctx, id)
}

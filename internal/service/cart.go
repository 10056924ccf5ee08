package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

// CartService определяет операции с корзиной сессии.
type CartService interface {
	GetOrCreate(ctx context.Context, sessionID string) (*models.Cart, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, sessionID, itemID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*models.Cart, error)
	Clear(ctx context.Context, sessionID string) (*models.Cart, error)
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetOrCreate возвращает корзину сессии, при первом обращении создаёт пустую
func (s *cartService) GetOrCreate(ctx context.Context, sessionID string) (*models.Cart, error) {
	const op = "service.CartService.GetOrCreate"
	logger := s.log.With(slog.String("op", op), slog.String("sessionID", sessionID))

	if sessionID == "" {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Session ID is required"))
	}

	cart, err := s.cartRepo.GetCartBySessionID(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, storage.ErrCartNotFound) {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}

	logger.Info("cart not found, creating new cart")
	if err := s.cartRepo.CreateCart(ctx, sessionID); err != nil {
		logger.Error("failed to create cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create cart: %w", op, err)
	}
	return s.reload(ctx, op, sessionID)
}

// AddItem добавляет товар в корзину. Если строка с этим товаром уже есть, количество
// складывается, а остаток сверяется только с добавляемым количеством.
func (s *cartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("sessionID", sessionID),
		slog.String("productID", productID),
		slog.Int("quantity", quantity),
	)

	if sessionID == "" || productID == "" || quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Invalid product ID or quantity"))
	}
	if !validID(productID) {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	if product.Stock < quantity {
		logger.Warn("insufficient stock", slog.Int("stock", product.Stock))
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInsufficientStock, "Insufficient stock"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.cartRepo.EnsureCartTx(ctx, tx, sessionID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to ensure cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.lockCart(ctx, op, logger, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpsertCartItemTx(ctx, tx, cart.ID, productID, quantity); err != nil {
		rollback(logger, tx)
		logger.Error("failed to add item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.commit(ctx, op, logger, tx, cart.ID); err != nil {
		return nil, err
	}

	logger.Info("item added to cart")
	return s.reload(ctx, op, sessionID)
}

// UpdateItem устанавливает количество в строке корзины
func (s *cartService) UpdateItem(ctx context.Context, sessionID, itemID string, quantity int) (*models.Cart, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("sessionID", sessionID),
		slog.String("itemID", itemID),
		slog.Int("quantity", quantity),
	)

	if quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Invalid quantity"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	cart, err := s.lockCart(ctx, op, logger, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !validID(itemID) {
		rollback(logger, tx)
		return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Item not found"))
	}
	item, err := s.cartRepo.GetCartItemTx(ctx, tx, cart.ID, itemID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Item not found"))
		}
		logger.Error("failed to get cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if product.Stock < quantity {
		rollback(logger, tx)
		logger.Warn("insufficient stock", slog.Int("stock", product.Stock))
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInsufficientStock, "Insufficient stock"))
	}

	if err := s.cartRepo.SetCartItemQuantityTx(ctx, tx, item.ID, quantity); err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Item not found"))
		}
		logger.Error("failed to update cart item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.commit(ctx, op, logger, tx, cart.ID); err != nil {
		return nil, err
	}

	logger.Info("cart item updated")
	return s.reload(ctx, op, sessionID)
}

// RemoveItem удаляет строку корзины; повторное удаление не считается ошибкой
func (s *cartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*models.Cart, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.String("sessionID", sessionID), slog.String("itemID", itemID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	cart, err := s.lockCart(ctx, op, logger, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if validID(itemID) {
		if err := s.cartRepo.DeleteCartItemTx(ctx, tx, cart.ID, itemID); err != nil {
			rollback(logger, tx)
			logger.Error("failed to remove cart item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.commit(ctx, op, logger, tx, cart.ID); err != nil {
		return nil, err
	}

	logger.Info("cart item removed")
	return s.reload(ctx, op, sessionID)
}

// Clear удаляет все строки корзины, сама корзина остаётся
func (s *cartService) Clear(ctx context.Context, sessionID string) (*models.Cart, error) {
	const op = "service.CartService.Clear"
	logger := s.log.With(slog.String("op", op), slog.String("sessionID", sessionID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	cart, err := s.lockCart(ctx, op, logger, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.ClearCartTx(ctx, tx, cart.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.commit(ctx, op, logger, tx, cart.ID); err != nil {
		return nil, err
	}

	logger.Info("cart cleared")
	return s.reload(ctx, op, sessionID)
}

// lockCart блокирует корзину в транзакции; при ошибке транзакция уже откачена
func (s *cartService) lockCart(ctx context.Context, op string, logger *slog.Logger, tx *sql.Tx, sessionID string) (*models.Cart, error) {
	cart, err := s.cartRepo.LockCartBySessionIDTx(ctx, tx, sessionID)
	if err == nil {
		return cart, nil
	}
	rollback(logger, tx)
	switch {
	case errors.Is(err, storage.ErrCartNotFound):
		return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Cart not found"))
	case errors.Is(err, storage.ErrLocked):
		logger.Warn("cart is locked by another request")
		return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, "Cart is being modified, please retry"))
	}
	logger.Error("failed to lock cart", slog.Any("error", err))
	return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
}

// commit увеличивает версию корзины и фиксирует транзакцию
func (s *cartService) commit(ctx context.Context, op string, logger *slog.Logger, tx *sql.Tx, cartID string) error {
	if err := s.cartRepo.TouchCartTx(ctx, tx, cartID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to touch cart", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}

func (s *cartService) reload(ctx context.Context, op, sessionID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetCartBySessionID(ctx, sessionID)
	if err != nil {
		s.log.Error("failed to reload cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reload cart: %w", op, err)
	}
	return cart, nil
}

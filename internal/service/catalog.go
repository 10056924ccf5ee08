package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// CatalogService определяет операции с каталогом товаров.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CreateProductInput: данные нового товара
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
	Stock       int
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"

	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
	}
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

// CreateProduct создаёт товар. Цена округляется до копеек, чтобы сумма заказа
// совпадала с суммой строк, сохранённых в БД.
func (s *catalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("name", in.Name))

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Image) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Missing required fields"))
	}
	if in.Price.IsNegative() || in.Stock < 0 {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Price and stock must be non-negative"))
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Image:       in.Image,
		Category:    in.Category,
		Stock:       in.Stock,
	})
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.String("productID", product.ID))
	return product, nil
}

// UpdateProduct меняет только переданные поля. Если в запросе указана версия,
// она должна совпадать с текущей, иначе возвращается ErrConflict.
func (s *catalogService) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	const op = "service.CatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("productID", id))

	if (upd.Price != nil && upd.Price.IsNegative()) || (upd.Stock != nil && *upd.Stock < 0) {
		return nil, fmt.Errorf("%s: %w", op, newError(ErrInvalidArgument, "Price and stock must be non-negative"))
	}

	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Version != nil && *upd.Version != current.Version {
		logger.Warn("stale product version", slog.Int64("expected", *upd.Version), slog.Int64("actual", current.Version))
		return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, "Product was modified concurrently"))
	}

	updated := upd.Apply(*current)
	updated.Price = updated.Price.Round(2)

	product, err := s.productRepo.UpdateProduct(ctx, &updated)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			return nil, fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
		case errors.Is(err, storage.ErrVersionConflict):
			logger.Warn("product changed between read and write")
			return nil, fmt.Errorf("%s: %w", op, newError(ErrConflict, "Product was modified concurrently"))
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product updated", slog.Int64("version", product.Version))
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	const op = "service.CatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.String("productID", id))

	if !validID(id) {
		return fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
	}
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, newError(ErrNotFound, "Product not found"))
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

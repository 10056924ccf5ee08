package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linemk/storefront/internal/domain/models"
)

// ProductStorage описывает методы для работы с каталогом товаров.
type ProductStorage interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	// UpdateProduct сохраняет товар, если его версия в БД совпадает с p.Version.
	UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	DeleteAllProducts(ctx context.Context) (int64, error)
	// DecrementProductStockTx уменьшает остаток, только если его хватает.
	DecrementProductStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, name, description, price, image, category, stock, version, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category,
		&p.Stock, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO products (id, name, description, price, image, category, stock)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING version, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Image, p.Category, p.Stock,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `UPDATE products
	          SET name = $1, description = $2, price = $3, image = $4, category = $5, stock = $6,
	              version = version + 1, updated_at = NOW()
	          WHERE id = $7 AND version = $8
	          RETURNING version, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.Image, p.Category, p.Stock, p.ID, p.Version,
	).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// товар либо удалён, либо изменён параллельно; различаем повторным чтением
			if _, getErr := r.GetProductByID(ctx, p.ID); errors.Is(getErr, ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DeleteAllProducts(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products")
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return res.RowsAffected()
}

// DecrementProductStockTx списывает остаток одним условным UPDATE, поэтому остаток
// не уходит в минус даже при параллельных заказах.
func (r *productRepository) DecrementProductStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error {
	query := `UPDATE products
	          SET stock = stock - $1, version = version + 1, updated_at = NOW()
	          WHERE id = $2 AND stock >= $1`
	res, err := tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/linemk/storefront/internal/domain/models"
)

// CartStorage описывает методы для работы с корзинами и их строками.
// Методы с суффиксом Tx выполняются в переданной транзакции.
type CartStorage interface {
	// GetCartBySessionID возвращает корзину вместе со строками и данными товаров.
	GetCartBySessionID(ctx context.Context, sessionID string) (*models.Cart, error)
	// CreateCart создаёт пустую корзину; существующая корзина не меняется.
	CreateCart(ctx context.Context, sessionID string) error
	EnsureCartTx(ctx context.Context, tx *sql.Tx, sessionID string) error
	// LockCartBySessionIDTx блокирует строку корзины (FOR UPDATE NOWAIT), строки корзины не загружаются.
	LockCartBySessionIDTx(ctx context.Context, tx *sql.Tx, sessionID string) (*models.Cart, error)
	// LockCartLinesTx загружает строки корзины и блокирует соответствующие товары.
	LockCartLinesTx(ctx context.Context, tx *sql.Tx, cartID string) ([]models.CartItem, error)
	GetCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) (*models.CartItem, error)
	// UpsertCartItemTx добавляет строку или увеличивает количество в существующей строке того же товара.
	UpsertCartItemTx(ctx context.Context, tx *sql.Tx, cartID, productID string, quantity int) error
	SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, itemID string, quantity int) error
	DeleteCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) error
	ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error
	// TouchCartTx увеличивает версию корзины и обновляет updated_at.
	TouchCartTx(ctx context.Context, tx *sql.Tx, cartID string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт новый репозиторий корзин.
func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartItemsQuery = `
		SELECT ci.id, ci.product_id, ci.quantity, ci.added_at,
		       p.id, p.name, p.description, p.price, p.image, p.category, p.stock, p.version, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id`

// товары блокируются по возрастанию id, чтобы параллельные заказы брали блокировки
// в одном порядке
const lockCartItemsQuery = `
		SELECT ci.id, ci.product_id, ci.quantity, ci.added_at,
		       p.id, p.name, p.description, p.price, p.image, p.category, p.stock, p.version, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.id
		FOR UPDATE OF p`

func scanCartItem(row rowScanner) (models.CartItem, error) {
	item := models.CartItem{}
	p := &models.Product{}
	err := row.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.Stock, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return item, err
	}
	item.Product = p
	return item, nil
}

func collectCartItems(rows *sql.Rows) ([]models.CartItem, error) {
	defer rows.Close()

	items := make([]models.CartItem, 0)
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) GetCartBySessionID(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, session_id, version, created_at, updated_at FROM carts WHERE session_id = $1", sessionID)
	if err := row.Scan(&cart.ID, &cart.SessionID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, cartItemsQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	items, err := collectCartItems(rows)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

const insertCartQuery = `INSERT INTO carts (id, session_id) VALUES ($1, $2) ON CONFLICT (session_id) DO NOTHING`

func (r *cartRepository) CreateCart(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, insertCartQuery, uuid.NewString(), sessionID); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *cartRepository) EnsureCartTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	if _, err := tx.ExecContext(ctx, insertCartQuery, uuid.NewString(), sessionID); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *cartRepository) LockCartBySessionIDTx(ctx context.Context, tx *sql.Tx, sessionID string) (*models.Cart, error) {
	cart := &models.Cart{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, session_id, version, created_at, updated_at FROM carts WHERE session_id = $1 FOR UPDATE NOWAIT", sessionID)
	if err := row.Scan(&cart.ID, &cart.SessionID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if isLockError(err) {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) LockCartLinesTx(ctx context.Context, tx *sql.Tx, cartID string) ([]models.CartItem, error) {
	rows, err := tx.QueryContext(ctx, lockCartItemsQuery, cartID)
	if err != nil {
		if isLockError(err) {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	items, err := collectCartItems(rows)
	if err != nil {
		if isLockError(err) {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, err
	}
	// строки заказа идут в порядке добавления в корзину
	slices.SortStableFunc(items, func(a, b models.CartItem) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (r *cartRepository) GetCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, product_id, quantity, added_at FROM cart_items WHERE cart_id = $1 AND id = $2", cartID, itemID)
	if err := row.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) UpsertCartItemTx(ctx context.Context, tx *sql.Tx, cartID, productID string, quantity int) error {
	query := `INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, $4, NOW())
	          ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), cartID, productID, quantity); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, itemID string, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE cart_items SET quantity = $1 WHERE id = $2", quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// DeleteCartItemTx удаляет строку корзины; отсутствие строки ошибкой не считается.
func (r *cartRepository) DeleteCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1 AND id = $2", cartID, itemID); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) TouchCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	res, err := tx.ExecContext(ctx, "UPDATE carts SET version = version + 1, updated_at = NOW() WHERE id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

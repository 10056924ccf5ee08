package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/shopspring/decimal"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ и все его строки в рамках транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// GetOrderByID возвращает заказ; строки заказа содержат данные товаров через LEFT JOIN.
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// ListOrders возвращает все заказы, новые первыми.
	ListOrders(ctx context.Context) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = "id, total_amount, customer_name, customer_email, shipping_address, status, created_at, updated_at"

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.TotalAmount, &o.CustomerName, &o.CustomerEmail, &o.ShippingAddress,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Items = make([]models.OrderLine, 0)
	return o, nil
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	query := `INSERT INTO orders (id, total_amount, customer_name, customer_email, shipping_address, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := tx.QueryRowContext(ctx, query,
		order.ID, order.TotalAmount, order.CustomerName, order.CustomerEmail, order.ShippingAddress, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	lineQuery := `INSERT INTO order_lines (id, order_id, position, product_id, quantity, price)
	              VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range order.Items {
		line := &order.Items[i]
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, lineQuery, line.ID, order.ID, i, line.ProductID, line.Quantity, line.Price); err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	if l, ok := lines[order.ID]; ok {
		order.Items = l
	}
	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	ids := make([]string, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if l, ok := lines[o.ID]; ok {
			o.Items = l
		}
	}
	return orders, nil
}

// loadLines загружает строки для набора заказов одним запросом; ключ результата: id заказа.
func (r *orderRepository) loadLines(ctx context.Context, orderIDs []string) (map[string][]models.OrderLine, error) {
	query := `
		SELECT ol.id, ol.order_id, ol.product_id, ol.quantity, ol.price,
		       p.id, p.name, p.description, p.price, p.image, p.category, p.stock, p.version, p.created_at, p.updated_at
		FROM order_lines ol
		LEFT JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id = ANY($1::uuid[])
		ORDER BY ol.order_id, ol.position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			line     models.OrderLine
			orderID  string
			pID      sql.NullString
			pName    sql.NullString
			pDesc    sql.NullString
			pPrice   decimal.NullDecimal
			pImage   sql.NullString
			pCat     sql.NullString
			pStock   sql.NullInt64
			pVersion sql.NullInt64
			pCreated sql.NullTime
			pUpdated sql.NullTime
		)
		if err := rows.Scan(&line.ID, &orderID, &line.ProductID, &line.Quantity, &line.Price,
			&pID, &pName, &pDesc, &pPrice, &pImage, &pCat, &pStock, &pVersion, &pCreated, &pUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		// товар мог быть удалён после оформления заказа
		if pID.Valid {
			line.Product = &models.Product{
				ID:          pID.String,
				Name:        pName.String,
				Description: pDesc.String,
				Price:       pPrice.Decimal,
				Image:       pImage.String,
				Category:    pCat.String,
				Stock:       int(pStock.Int64),
				Version:     pVersion.Int64,
				CreatedAt:   pCreated.Time,
				UpdatedAt:   pUpdated.Time,
			}
		}
		result[orderID] = append(result[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

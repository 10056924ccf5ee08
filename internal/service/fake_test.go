package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeStore: хранилище в памяти, реализующее все три репозитория.
// Транзакции подменяются sqlmock: репозитории получают *sql.Tx, но не используют его.
type fakeStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	carts    map[string]*models.Cart // ключ: sessionID
	orders   map[string]*models.Order

	lockErr      error           // возвращается из LockCartBySessionIDTx
	linesLockErr error           // возвращается из LockCartLinesTx
	stolenStock  map[string]bool // DecrementProductStockTx вернёт ErrInsufficientStock
	createErr    error           // возвращается из CreateOrderTx
	decremented  []string
	clearedCarts int
}

var (
	_ storage.ProductStorage = (*fakeStore)(nil)
	_ storage.CartStorage    = (*fakeStore)(nil)
	_ storage.OrderStorage   = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:    make(map[string]*models.Product),
		carts:       make(map[string]*models.Cart),
		orders:      make(map[string]*models.Order),
		stolenStock: make(map[string]bool),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func (f *fakeStore) addProduct(name, price string, stock int) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Image:       "/images/" + name + ".jpg",
		Category:    "Test",
		Stock:       stock,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) addCart(sessionID string, lines ...models.CartItem) *models.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Cart{ID: uuid.NewString(), SessionID: sessionID, Version: 1, Items: []models.CartItem{}}
	for _, l := range lines {
		l.ID = uuid.NewString()
		l.AddedAt = time.Now()
		c.Items = append(c.Items, l)
	}
	f.carts[sessionID] = c
	snapshot := *c
	snapshot.Items = append([]models.CartItem(nil), c.Items...)
	return &snapshot
}

func (f *fakeStore) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

func (f *fakeStore) cartByID(id string) *models.Cart {
	for _, c := range f.carts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// resolve возвращает копию корзины с данными товаров
func (f *fakeStore) resolve(c *models.Cart) *models.Cart {
	out := *c
	out.Items = make([]models.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if p, ok := f.products[item.ProductID]; ok {
			cp := *p
			item.Product = &cp
		}
		out.Items = append(out.Items, item)
	}
	return &out
}

// ProductStorage

func (f *fakeStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.ID = uuid.NewString()
	cp.Version = 1
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.products[p.ID]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	if current.Version != p.Version {
		return nil, storage.ErrVersionConflict
	}
	cp := *p
	cp.Version++
	cp.UpdatedAt = time.Now()
	f.products[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	for _, c := range f.carts {
		kept := c.Items[:0]
		for _, item := range c.Items {
			if item.ProductID != id {
				kept = append(kept, item)
			}
		}
		c.Items = kept
	}
	return nil
}

func (f *fakeStore) DeleteAllProducts(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.products))
	f.products = make(map[string]*models.Product)
	return n, nil
}

func (f *fakeStore) DecrementProductStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || f.stolenStock[id] || p.Stock < quantity {
		return storage.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.Version++
	f.decremented = append(f.decremented, id)
	return nil
}

// CartStorage

func (f *fakeStore) GetCartBySessionID(ctx context.Context, sessionID string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[sessionID]
	if !ok {
		return nil, storage.ErrCartNotFound
	}
	return f.resolve(c), nil
}

func (f *fakeStore) CreateCart(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[sessionID]; !ok {
		f.carts[sessionID] = &models.Cart{ID: uuid.NewString(), SessionID: sessionID, Version: 1, Items: []models.CartItem{}}
	}
	return nil
}

func (f *fakeStore) EnsureCartTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	return f.CreateCart(ctx, sessionID)
}

func (f *fakeStore) LockCartBySessionIDTx(ctx context.Context, tx *sql.Tx, sessionID string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	c, ok := f.carts[sessionID]
	if !ok {
		return nil, storage.ErrCartNotFound
	}
	return &models.Cart{ID: c.ID, SessionID: c.SessionID, Version: c.Version}, nil
}

func (f *fakeStore) LockCartLinesTx(ctx context.Context, tx *sql.Tx, cartID string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linesLockErr != nil {
		return nil, f.linesLockErr
	}
	c := f.cartByID(cartID)
	if c == nil {
		return []models.CartItem{}, nil
	}
	return f.resolve(c).Items, nil
}

func (f *fakeStore) GetCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) (*models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.cartByID(cartID); c != nil {
		for _, item := range c.Items {
			if item.ID == itemID {
				cp := item
				return &cp, nil
			}
		}
	}
	return nil, storage.ErrCartItemNotFound
}

func (f *fakeStore) UpsertCartItemTx(ctx context.Context, tx *sql.Tx, cartID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cartByID(cartID)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, models.CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	return nil
}

func (f *fakeStore) SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, itemID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.carts {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return storage.ErrCartItemNotFound
}

func (f *fakeStore) DeleteCartItemTx(ctx context.Context, tx *sql.Tx, cartID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cartByID(cartID)
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	return nil
}

func (f *fakeStore) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cartByID(cartID).Items = []models.CartItem{}
	f.clearedCarts++
	return nil
}

func (f *fakeStore) TouchCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cartByID(cartID)
	if c == nil {
		return storage.ErrCartNotFound
	}
	c.Version++
	return nil
}

// OrderStorage

func (f *fakeStore) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uuid.NewString()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	cp.Items = make([]models.OrderLine, len(order.Items))
	for i, line := range order.Items {
		line.ID = uuid.NewString()
		line.Product = nil
		cp.Items[i] = line
	}
	f.orders[cp.ID] = &cp
	return nil
}

func (f *fakeStore) orderCopy(o *models.Order) *models.Order {
	cp := *o
	cp.Items = make([]models.OrderLine, len(o.Items))
	for i, line := range o.Items {
		if p, ok := f.products[line.ProductID]; ok {
			pc := *p
			line.Product = &pc
		}
		cp.Items[i] = line
	}
	return &cp
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return f.orderCopy(o), nil
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, f.orderCopy(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

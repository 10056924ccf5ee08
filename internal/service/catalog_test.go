package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductInput() service.CreateProductInput {
	return service.CreateProductInput{
		Name:        "Headphones",
		Description: "Wireless",
		Price:       decimal.RequireFromString("199.999"),
		Image:       "/images/headphones.jpg",
		Category:    "Electronics",
		Stock:       50,
	}
}

func TestCreateProduct(t *testing.T) {
	store := newFakeStore()
	svc := service.NewCatalogService(discardLogger(), store)

	p, err := svc.CreateProduct(context.Background(), validProductInput())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, decimal.RequireFromString("200").Equal(p.Price), "price rounded to cents: %s", p.Price)
	assert.Equal(t, 50, p.Stock)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := service.NewCatalogService(discardLogger(), newFakeStore())

	in := validProductInput()
	in.Category = " "
	_, err := svc.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	msg, _ := service.PublicMessage(err)
	assert.Equal(t, "Missing required fields", msg)

	in = validProductInput()
	in.Price = decimal.NewFromInt(-1)
	_, err = svc.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	in = validProductInput()
	in.Stock = -1
	_, err = svc.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	msg, _ = service.PublicMessage(err)
	assert.Equal(t, "Price and stock must be non-negative", msg)
}

func TestUpdateProduct_Partial(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("A", "10", 5)
	svc := service.NewCatalogService(discardLogger(), store)

	stock := 7
	updated, err := svc.UpdateProduct(context.Background(), p.ID, models.ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "A", updated.Name)
	assert.True(t, p.Price.Equal(updated.Price))
	assert.Equal(t, p.Version+1, updated.Version)
}

func TestUpdateProduct_StaleVersion(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("A", "10", 5)
	svc := service.NewCatalogService(discardLogger(), store)

	stale := p.Version - 1
	name := "B"
	_, err := svc.UpdateProduct(context.Background(), p.ID, models.ProductUpdate{Name: &name, Version: &stale})
	assert.ErrorIs(t, err, service.ErrConflict)

	current := p.Version
	updated, err := svc.UpdateProduct(context.Background(), p.ID, models.ProductUpdate{Name: &name, Version: &current})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
}

func TestUpdateProduct_Errors(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("A", "10", 5)
	svc := service.NewCatalogService(discardLogger(), store)

	negative := decimal.NewFromInt(-5)
	_, err := svc.UpdateProduct(context.Background(), p.ID, models.ProductUpdate{Price: &negative})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	name := "X"
	_, err = svc.UpdateProduct(context.Background(), uuid.NewString(), models.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	store := newFakeStore()
	p := store.addProduct("A", "10", 5)
	svc := service.NewCatalogService(discardLogger(), store)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID))

	err := svc.DeleteProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	msg, _ := service.PublicMessage(err)
	assert.Equal(t, "Product not found", msg)

	_, err = svc.GetProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	store := newFakeStore()
	store.addProduct("A", "10", 5)
	store.addProduct("B", "20", 5)
	svc := service.NewCatalogService(discardLogger(), store)

	products, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

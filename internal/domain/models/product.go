package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// клиент ожидает цены числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true
}

// Product представляет товар каталога
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Version     int64           `json:"version"` // увеличивается при каждом изменении
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductUpdate описывает частичное изменение товара: nil означает "не менять".
// Version, если задан, должен совпадать с текущей версией товара.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Category    *string
	Stock       *int
	Version     *int64
}

// Apply применяет изменения к копии товара
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	return p
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus: статус заказа
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses перечисляет все допустимые статусы
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid сообщает, входит ли статус в перечисление
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Order представляет заказ, созданный из корзины
type Order struct {
	ID              string          `json:"id"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"` // считается один раз при создании
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	ShippingAddress string          `json:"shippingAddress"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderLine: строка заказа с ценой на момент оформления
type OrderLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"` // nil, если товар уже удалён из каталога
}

// Subtotal возвращает стоимость строки
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal суммирует стоимость строк заказа
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Items {
		total = total.Add(line.Subtotal())
	}
	return total
}

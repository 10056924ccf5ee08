package models

import "time"

// Cart представляет корзину, привязанную к токену сессии клиента
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem: строка корзины. Quantity всегда >= 1.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product,omitempty"` // заполняется через JOIN с таблицей products
	AddedAt   time.Time `json:"addedAt"`
}

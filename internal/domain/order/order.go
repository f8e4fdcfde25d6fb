package order

import (
	"time"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

// DraftItem is the only per-item data sent when placing an order; prices are
// always decided by the server.
type DraftItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// Draft is the order request: product ids and quantities only. Prices are
// settled by the store.
type Draft struct {
	Items []DraftItem `json:"items"`
}

// NewDraft copies the cart lines into a draft in cart order.
func NewDraft(items []domcart.LineItem) Draft {
	d := Draft{Items: make([]DraftItem, 0, len(items))}
	for _, item := range items {
		d.Items = append(d.Items, DraftItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return d
}

// Order is the server's authoritative record returned after creation.
type Order struct {
	ID            int64
	TotalAmount   float64
	Status        string
	PaymentStatus string
	CreatedAt     time.Time
	Items         []OrderItem
}

type OrderItem struct {
	ProductID  int64
	Name       string
	Quantity   int64
	UnitPrice  float64
	TotalPrice float64
}

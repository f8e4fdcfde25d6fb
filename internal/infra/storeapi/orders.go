package storeapi

import (
	"context"
	"net/http"
	"time"

	domorder "example.com/stylino-storefront/internal/domain/order"
)

type orderItemResponse struct {
	ProductID   int64   `json:"productId" validate:"gt=0"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
	TotalPrice  float64 `json:"totalPrice" validate:"gte=0"`
}

type orderResponse struct {
	ID            int64               `json:"id" validate:"gt=0"`
	TotalAmount   *float64            `json:"totalAmount" validate:"required,gte=0"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"paymentStatus"`
	CreatedAt     string              `json:"createdAt"`
	Items         []orderItemResponse `json:"items" validate:"dive"`
}

// The backend emits naive ISO timestamps; offsets are accepted when present.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseCreatedAt(v string) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CreateOrder implements domorder.Gateway.
func (c *Client) CreateOrder(ctx context.Context, token string, draft domorder.Draft) (*domorder.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", token, draft, &resp); err != nil {
		return nil, err
	}

	order := &domorder.Order{
		ID:            resp.ID,
		TotalAmount:   *resp.TotalAmount,
		Status:        resp.Status,
		PaymentStatus: resp.PaymentStatus,
		CreatedAt:     parseCreatedAt(resp.CreatedAt),
		Items:         make([]domorder.OrderItem, 0, len(resp.Items)),
	}
	for _, it := range resp.Items {
		order.Items = append(order.Items, domorder.OrderItem{
			ProductID:  it.ProductID,
			Name:       it.ProductName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return order, nil
}

package storeapi

import (
	"context"
	"net/http"

	dompayment "example.com/stylino-storefront/internal/domain/payment"
)

type paymentCreateRequest struct {
	OrderID     int64   `json:"order_id"`
	AmountToman int64   `json:"amount_toman"`
	Description string  `json:"description"`
	Mobile      *string `json:"mobile,omitempty"`
	Email       *string `json:"email,omitempty"`
}

type paymentCreateResponse struct {
	Authority  string `json:"authority"`
	PaymentURL string `json:"payment_url" validate:"required,url"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// CreateSession implements dompayment.Gateway against the Zarinpal endpoint.
func (c *Client) CreateSession(ctx context.Context, token string, req dompayment.SessionRequest) (*dompayment.Session, error) {
	body := paymentCreateRequest{
		OrderID:     req.OrderID,
		AmountToman: req.AmountMinorUnits,
		Description: req.Description,
		Mobile:      req.Mobile,
		Email:       req.Email,
	}

	var resp paymentCreateResponse
	if err := c.do(ctx, http.MethodPost, "/payments/zarinpal/create", token, body, &resp); err != nil {
		return nil, err
	}

	return &dompayment.Session{
		RedirectURL: resp.PaymentURL,
		Authority:   resp.Authority,
		Code:        resp.Code,
		Message:     resp.Message,
	}, nil
}

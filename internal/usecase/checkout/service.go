package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domcart "example.com/stylino-storefront/internal/domain/cart"
	domorder "example.com/stylino-storefront/internal/domain/order"
	dompayment "example.com/stylino-storefront/internal/domain/payment"
	domuser "example.com/stylino-storefront/internal/domain/user"
	"example.com/stylino-storefront/internal/metrics"
	"example.com/stylino-storefront/pkg/logger"
)

// DefaultDescriptionFormat is the payment description, filled with the order id.
const DefaultDescriptionFormat = "پرداخت سفارش شماره %d"

// CartSession is the slice of a cart session checkout needs. Settle takes the
// ordered lines out of the cart once the payment session exists.
type CartSession interface {
	View() domcart.View
	Settle(ctx context.Context, ordered []domcart.LineItem) domcart.View
	BeginCheckout() bool
	EndCheckout()
}

// TokenInspector decides whether a bearer token is worth sending at all.
type TokenInspector interface {
	Usable(token string) bool
}

// Config sets the sign-in entry point, the path it returns to and the
// payment description format. Empty fields take their defaults.
type Config struct {
	AuthEntryURL      string
	ReturnPath        string
	DescriptionFormat string
}

// Input is one checkout attempt. Mobile and Email are optional prefill values
// for the payment gateway.
type Input struct {
	Token  string
	Cart   CartSession
	Mobile string
	Email  string
}

// Handoff is what the browser needs to leave for the payment gateway.
type Handoff struct {
	OrderID          int64
	AmountMinorUnits int64
	RedirectURL      string
	Authority        string
}

// Contact seeds the checkout form from the signed-in profile.
type Contact struct {
	Name        string
	Mobile      string
	Email       string
	CanCheckout bool
}

// AuthRequiredError carries the sign-in URL that returns the customer to
// checkout afterwards.
type AuthRequiredError struct {
	RedirectURL string
}

func (e *AuthRequiredError) Error() string {
	return domorder.ErrAuthRequired.Error()
}

// Is lets errors.Is match ErrAuthRequired.
func (e *AuthRequiredError) Is(target error) bool {
	return target == domorder.ErrAuthRequired
}

// Service runs checkout against the order, payment and user backends.
type Service struct {
	orders   domorder.Gateway
	payments dompayment.Gateway
	users    domuser.Gateway
	tokens   TokenInspector
	metrics  *metrics.Metrics
	cfg      Config
}

// NewService wires the checkout flow. tokens may be nil, in which case any
// non-blank token is sent to the backend.
func NewService(orders domorder.Gateway, payments dompayment.Gateway, users domuser.Gateway, tokens TokenInspector, m *metrics.Metrics, cfg Config) *Service {
	if cfg.AuthEntryURL == "" {
		cfg.AuthEntryURL = "/auth"
	}
	if cfg.ReturnPath == "" {
		cfg.ReturnPath = "/checkout"
	}
	if cfg.DescriptionFormat == "" {
		cfg.DescriptionFormat = DefaultDescriptionFormat
	}
	return &Service{
		orders:   orders,
		payments: payments,
		users:    users,
		tokens:   tokens,
		metrics:  m,
		cfg:      cfg,
	}
}

// Checkout places an order for the session's cart and opens a payment for it.
// The ordered lines leave the cart only once the gateway redirect is known;
// any earlier failure leaves it exactly as it was. Lines added while the
// backends were being called stay in the cart.
func (s *Service) Checkout(ctx context.Context, in Input) (*Handoff, error) {
	if !s.hasToken(in.Token) {
		s.metrics.CheckoutOutcome("auth_required")
		return nil, s.authRequired()
	}

	if !in.Cart.BeginCheckout() {
		s.metrics.CheckoutOutcome("in_progress")
		return nil, domorder.ErrCheckoutInProgress
	}
	defer in.Cart.EndCheckout()

	view := in.Cart.View()
	if view.IsEmpty {
		s.metrics.CheckoutOutcome("empty_cart")
		return nil, domorder.ErrEmptyCart
	}

	started := time.Now()
	order, err := s.orders.CreateOrder(ctx, in.Token, domorder.NewDraft(view.Items))
	s.metrics.ObserveBackend("create_order", started, err)
	if err != nil {
		s.metrics.CheckoutOutcome("order_failed")
		logger.Error(err, "order creation failed", map[string]interface{}{"items": len(view.Items)})
		return nil, fmt.Errorf("%w: %w", domorder.ErrOrderCreation, err)
	}

	req := dompayment.SessionRequest{
		OrderID:          order.ID,
		AmountMinorUnits: dompayment.RoundAmount(order.TotalAmount),
		Description:      fmt.Sprintf(s.cfg.DescriptionFormat, order.ID),
		Mobile:           optional(in.Mobile),
		Email:            optional(in.Email),
	}

	started = time.Now()
	session, err := s.payments.CreateSession(ctx, in.Token, req)
	s.metrics.ObserveBackend("create_payment", started, err)
	if err == nil && strings.TrimSpace(session.RedirectURL) == "" {
		err = errors.New("backend returned no payment url")
	}
	if err != nil {
		s.metrics.CheckoutOutcome("payment_failed")
		logger.Error(err, "payment session creation failed", map[string]interface{}{"order_id": order.ID})
		return nil, fmt.Errorf("%w: %w", dompayment.ErrSessionCreation, err)
	}

	in.Cart.Settle(ctx, view.Items)
	s.metrics.CheckoutOutcome("handoff")
	logger.Info("checkout handed off to payment gateway", map[string]interface{}{
		"order_id":  order.ID,
		"amount":    req.AmountMinorUnits,
		"authority": session.Authority,
	})

	return &Handoff{
		OrderID:          order.ID,
		AmountMinorUnits: req.AmountMinorUnits,
		RedirectURL:      session.RedirectURL,
		Authority:        session.Authority,
	}, nil
}

// Prefill looks up the signed-in customer to seed the checkout contact form.
func (s *Service) Prefill(ctx context.Context, token string) (Contact, error) {
	if !s.hasToken(token) {
		return Contact{}, s.authRequired()
	}

	started := time.Now()
	u, err := s.users.CurrentUser(ctx, token)
	s.metrics.ObserveBackend("current_user", started, err)
	if errors.Is(err, domuser.ErrUnauthorized) {
		return Contact{}, err
	}
	if err != nil {
		return Contact{}, fmt.Errorf("%w: %w", domuser.ErrProfileUnavailable, err)
	}

	return Contact{
		Name:        u.Name,
		Mobile:      u.Phone,
		Email:       u.Email,
		CanCheckout: u.Role.CanCheckout(),
	}, nil
}

// AuthRedirectURL is the sign-in entry point with checkout as its return target.
func (s *Service) AuthRedirectURL() string {
	sep := "?"
	if strings.Contains(s.cfg.AuthEntryURL, "?") {
		sep = "&"
	}
	return s.cfg.AuthEntryURL + sep + "redirect=" + s.cfg.ReturnPath
}

func (s *Service) authRequired() error {
	return &AuthRequiredError{RedirectURL: s.AuthRedirectURL()}
}

func (s *Service) hasToken(token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	if s.tokens == nil {
		return true
	}
	return s.tokens.Usable(token)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	domorder "example.com/stylino-storefront/internal/domain/order"
	dompayment "example.com/stylino-storefront/internal/domain/payment"
	domuser "example.com/stylino-storefront/internal/domain/user"
	cartuc "example.com/stylino-storefront/internal/usecase/cart"
	checkoutuc "example.com/stylino-storefront/internal/usecase/checkout"
	"example.com/stylino-storefront/pkg/logger"
)

// SlotKeyer turns a browser session id into a cart slot key.
type SlotKeyer interface {
	For(sessionID string) string
}

// API is the storefront HTTP surface: cart, checkout and the payment return.
type API struct {
	cartSvc      *cartuc.Service
	checkoutSvc  *checkoutuc.Service
	slotKeys     SlotKeyer
	cookieName   string
	cookieSecure bool
	metrics      http.Handler
	validator    *validator.Validate
}

// Dependencies are the collaborators NewAPI needs. CookieName defaults to
// stylino_session.
type Dependencies struct {
	CartService     *cartuc.Service
	CheckoutService *checkoutuc.Service
	SlotKeys        SlotKeyer
	CookieName      string
	CookieSecure    bool
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

// NewAPI builds the API from its dependencies.
func NewAPI(deps Dependencies) *API {
	validate := validator.New()
	cookieName := deps.CookieName
	if cookieName == "" {
		cookieName = "stylino_session"
	}
	return &API{
		cartSvc:      deps.CartService,
		checkoutSvc:  deps.CheckoutService,
		slotKeys:     deps.SlotKeys,
		cookieName:   cookieName,
		cookieSecure: deps.CookieSecure,
		metrics:      deps.MetricsHandler,
		validator:    validate,
	}
}

// Router mounts every route with the shared middleware chain.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain", formContentType))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics)
	}

	r.Get("/payment/result", a.handlePaymentResult)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(sr chi.Router) {
			sr.Use(a.sessionMiddleware)

			sr.Route("/cart", func(cr chi.Router) {
				cr.Get("/", a.handleGetCart)
				cr.Delete("/", a.handleClearCart)
				cr.Post("/items", a.handleAddCartItem)
				cr.Post("/items/{productId}/decrement", a.handleDecrementCartItem)
				cr.Delete("/items/{productId}", a.handleRemoveCartItem)
			})

			sr.Post("/checkout", a.handleCheckout)
		})

		r.Get("/checkout/contact", a.handleCheckoutContact)
	})

	return r
}

// decodeAndValidate treats an empty body as an empty object so optional
// payloads can be omitted entirely.
func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error(err, "response encode failed", map[string]interface{}{"status": status})
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

// backendDetail is implemented by upstream errors that carry a message meant
// for the customer.
type backendDetail interface {
	DetailMessage() string
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domorder.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domorder.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, domorder.ErrAuthRequired),
		errors.Is(err, domuser.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domorder.ErrOrderCreation),
		errors.Is(err, dompayment.ErrSessionCreation),
		errors.Is(err, domuser.ErrProfileUnavailable):
		resp := errorResponse{Error: err.Error()}
		var d backendDetail
		if errors.As(err, &d) {
			resp.Details = d.DetailMessage()
		}
		writeJSON(w, http.StatusBadGateway, resp)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}

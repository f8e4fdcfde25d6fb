package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	domcart "example.com/stylino-storefront/internal/domain/cart"
	domorder "example.com/stylino-storefront/internal/domain/order"
	dompayment "example.com/stylino-storefront/internal/domain/payment"
	domuser "example.com/stylino-storefront/internal/domain/user"
	"example.com/stylino-storefront/internal/infra/persistence/memory"
	"example.com/stylino-storefront/internal/infra/security"
	"example.com/stylino-storefront/internal/metrics"
	cartuc "example.com/stylino-storefront/internal/usecase/cart"
	checkoutuc "example.com/stylino-storefront/internal/usecase/checkout"
	"example.com/stylino-storefront/pkg/logger"
)

type fakeOrderGateway struct {
	order *domorder.Order
	err   error
	calls int
}

func (f *fakeOrderGateway) CreateOrder(ctx context.Context, token string, draft domorder.Draft) (*domorder.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

type fakePaymentGateway struct {
	err       error
	calls     int
	lastToken string
	lastReq   dompayment.SessionRequest
}

func (f *fakePaymentGateway) CreateSession(ctx context.Context, token string, req dompayment.SessionRequest) (*dompayment.Session, error) {
	f.calls++
	f.lastToken = token
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &dompayment.Session{
		RedirectURL: "https://www.zarinpal.com/pg/StartPay/A42",
		Authority:   "A42",
		Code:        100,
	}, nil
}

type fakeUserGateway struct {
	user *domuser.User
	err  error
}

func (f *fakeUserGateway) CurrentUser(ctx context.Context, token string) (*domuser.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type detailedErr struct{ detail string }

func (e detailedErr) Error() string         { return "store api returned 400: " + e.detail }
func (e detailedErr) DetailMessage() string { return e.detail }

type testEnv struct {
	handler  http.Handler
	repo     *memory.SlotRepository
	orders   *fakeOrderGateway
	payments *fakePaymentGateway
	users    *fakeUserGateway
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	repo := memory.NewSlotRepository()
	cartSvc, err := cartuc.NewService(repo, 16, m)
	require.NoError(t, err)

	env := &testEnv{
		repo:     repo,
		orders:   &fakeOrderGateway{order: &domorder.Order{ID: 42, TotalAmount: 200}},
		payments: &fakePaymentGateway{},
		users:    &fakeUserGateway{},
	}
	checkoutSvc := checkoutuc.NewService(env.orders, env.payments, env.users, nil, m, checkoutuc.Config{})

	api := NewAPI(Dependencies{
		CartService:     cartSvc,
		CheckoutService: checkoutSvc,
		SlotKeys:        security.NewSlotKeys("stylino_cart"),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	env.handler = api.Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "stylino_session" {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) doForm(t *testing.T, path string, form url.Values, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) domcart.View {
	t.Helper()
	var view domcart.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func addCoat(t *testing.T, env *testEnv, qty any) *httptest.ResponseRecorder {
	return env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": 1, "name": "Coat", "unitPrice": 100, "quantity": qty,
	}, "")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessionCookie_IssuedOnceAndReused(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)
	require.True(t, env.cookie.HttpOnly)
	first := env.cookie.Value

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil, "")
	require.Empty(t, rec.Result().Cookies())
	require.Equal(t, first, env.cookie.Value)
}

func TestSessionCookie_GarbageIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = &http.Cookie{Name: "stylino_session", Value: "not-a-uuid"}

	env.do(t, http.MethodGet, "/api/v1/cart", nil, "")

	require.NotEqual(t, "not-a-uuid", env.cookie.Value)
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)

	view := decodeView(t, addCoat(t, env, 2))
	require.Equal(t, int64(2), view.TotalCount)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": 2, "name": "Scarf", "unitPrice": 25.5, "imageRef": "/img/2.jpg",
	}, "")
	view = decodeView(t, rec)
	require.Len(t, view.Items, 2)
	require.Equal(t, 225.5, view.TotalPrice)

	view = decodeView(t, env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", nil, ""))
	require.Equal(t, int64(2), view.TotalCount)

	view = decodeView(t, env.do(t, http.MethodDelete, "/api/v1/cart/items/2", nil, ""))
	require.Len(t, view.Items, 1)
	require.Equal(t, 100.0, view.TotalPrice)

	view = decodeView(t, env.do(t, http.MethodDelete, "/api/v1/cart", nil, ""))
	require.True(t, view.IsEmpty)
}

func TestCartFlow_LooseQuantityClampsToOne(t *testing.T) {
	env := newTestEnv(t)

	for _, qty := range []any{"abc", 0, -4, nil} {
		addCoat(t, env, qty)
	}

	view := decodeView(t, env.do(t, http.MethodGet, "/api/v1/cart", nil, ""))
	require.Len(t, view.Items, 1)
	require.Equal(t, int64(4), view.TotalCount)
}

func TestCart_PersistsToSlot(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 3)

	payload, err := env.repo.Load(context.Background(), security.NewSlotKeys("stylino_cart").For(env.cookie.Value))

	require.NoError(t, err)
	require.JSONEq(t, `[{"productId":1,"name":"Coat","price":100,"quantity":3}]`, string(payload))
}

func TestCart_HugeQuantitySaturates(t *testing.T) {
	env := newTestEnv(t)

	addCoat(t, env, 9e18)
	view := decodeView(t, addCoat(t, env, 9e18))

	require.Len(t, view.Items, 1)
	require.Equal(t, domcart.MaxQuantity, view.Items[0].Quantity)
	require.Equal(t, domcart.MaxQuantity, view.TotalCount)

	payload, err := env.repo.Load(context.Background(), security.NewSlotKeys("stylino_cart").For(env.cookie.Value))
	require.NoError(t, err)
	require.Len(t, domcart.Decode(payload).Items(), 1)
}

func TestCart_PriceAboveLimitRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": 1, "name": "Gold", "unitPrice": math.MaxFloat64, "quantity": 2,
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"productId": 1, "name": "Gold", "unitPrice": domcart.MaxUnitPrice, "quantity": 2,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2*domcart.MaxUnitPrice, decodeView(t, rec).TotalPrice)
}

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := logger.Logger.Out
	logger.Logger.SetOutput(buf)
	t.Cleanup(func() { logger.Logger.SetOutput(prev) })

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"totalPrice": math.Inf(1)})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, buf.String(), "response encode failed")
}

func TestCart_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": 0, "name": "X"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": 3, "name": "X", "unitPrice": -1}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_WithoutToken_ReturnsAuthURL(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 1)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	var body authRequiredResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "/auth?redirect=/checkout", body.RedirectURL)
	require.Zero(t, env.orders.calls)
}

func TestCheckout_WithoutToken_FormPostRedirectsToAuth(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 1)

	rec := env.doForm(t, "/api/v1/checkout", url.Values{"mobile": {"0912"}}, "")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth?redirect=/checkout", rec.Header().Get("Location"))
	require.Zero(t, env.orders.calls)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil, "tok")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Zero(t, env.orders.calls)
}

func TestCheckout_Success_ReturnsGatewayURLAndClears(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 2)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{"mobile": "0912"}, "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Location"))
	require.Equal(t, "A42", rec.Header().Get("X-Payment-Authority"))
	require.JSONEq(t, `{"redirectUrl":"https://www.zarinpal.com/pg/StartPay/A42","orderId":42,"authority":"A42","amount":200}`, rec.Body.String())

	view := decodeView(t, env.do(t, http.MethodGet, "/api/v1/cart", nil, ""))
	require.True(t, view.IsEmpty)
}

func TestCheckout_FormPostRedirectsToGateway(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 1)

	rec := env.doForm(t, "/api/v1/checkout", url.Values{"mobile": {"0912"}, "access_token": {"tok"}}, "")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://www.zarinpal.com/pg/StartPay/A42", rec.Header().Get("Location"))
	require.Equal(t, "tok", env.payments.lastToken)
	require.Equal(t, "0912", *env.payments.lastReq.Mobile)
	require.True(t, decodeView(t, env.do(t, http.MethodGet, "/api/v1/cart", nil, "")).IsEmpty)
}

func TestCheckout_HTMLAcceptRedirects(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
	req.Header.Set("Authorization", "Bearer tok")
	req.AddCookie(env.cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://www.zarinpal.com/pg/StartPay/A42", rec.Header().Get("Location"))
}

func TestCheckout_BackendFailure_KeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.orders.err = detailedErr{detail: "موجودی کافی نیست"}
	addCoat(t, env, 2)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil, "tok")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "موجودی کافی نیست", body.Details)
	require.True(t, strings.HasPrefix(body.Error, domorder.ErrOrderCreation.Error()))

	view := decodeView(t, env.do(t, http.MethodGet, "/api/v1/cart", nil, ""))
	require.Equal(t, int64(2), view.TotalCount)
}

func TestCheckout_PaymentFailure(t *testing.T) {
	env := newTestEnv(t)
	env.payments.err = errors.New("gateway timeout")
	addCoat(t, env, 1)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", nil, "tok")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 1, env.orders.calls)
	require.False(t, decodeView(t, env.do(t, http.MethodGet, "/api/v1/cart", nil, "")).IsEmpty)
}

func TestCheckoutContact(t *testing.T) {
	env := newTestEnv(t)
	env.users.user = &domuser.User{ID: 1, Name: "Sara", Email: "s@example.com", Phone: "0912", Role: domuser.RoleCodeCustomer}

	rec := env.do(t, http.MethodGet, "/api/v1/checkout/contact", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"authentication required","redirectUrl":"/auth?redirect=/checkout"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/checkout/contact", nil, "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"name":"Sara","mobile":"0912","email":"s@example.com","canCheckout":true}`, rec.Body.String())

	env.users.err = domuser.ErrUnauthorized
	rec = env.do(t, http.MethodGet, "/api/v1/checkout/contact", nil, "stale")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env.users.err = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/api/v1/checkout/contact", nil, "tok")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPaymentResult(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/payment/result?status=success&orderId=42&refId=12345&amount=1250000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"outcome":"success","orderId":"42","referenceId":"12345","amount":1250000}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/payment/result?status=failed&message=Canceled+by+user&code=-51", nil, "")
	require.JSONEq(t, `{"outcome":"failure","errorCode":"-51","errorMessage":"Canceled by user"}`, rec.Body.String())
	require.Zero(t, env.orders.calls)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	addCoat(t, env, 1)

	rec := env.do(t, http.MethodGet, "/metrics", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `storefront_cart_mutations_total{op="add"} 1`)
}

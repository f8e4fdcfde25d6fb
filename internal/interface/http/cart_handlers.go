package http

import (
	"errors"
	"net/http"

	domcart "example.com/stylino-storefront/internal/domain/cart"
	cartuc "example.com/stylino-storefront/internal/usecase/cart"
)

var errInvalidProductID = errors.New("invalid product id")

type addCartItemRequest struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=255"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0,lte=1000000000000"`
	ImageRef  string  `json:"imageRef" validate:"max=2048"`
	// Quantity is loosely typed; anything that is not a positive number ends
	// up as a single unit.
	Quantity any `json:"quantity"`
}

// withSession opens the request's cart session for the duration of fn.
func (a *API) withSession(r *http.Request, fn func(sess *cartuc.Session)) {
	sess := a.cartSvc.Open(r.Context(), slotKeyFrom(r.Context()))
	defer a.cartSvc.Release(sess)
	fn(sess)
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	a.withSession(r, func(sess *cartuc.Session) {
		writeJSON(w, http.StatusOK, sess.View())
	})
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	in := domcart.ProductInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		ImageRef:  req.ImageRef,
	}
	a.withSession(r, func(sess *cartuc.Session) {
		writeJSON(w, http.StatusOK, sess.AddItem(r.Context(), in, domcart.CoerceQuantity(req.Quantity)))
	})
}

func (a *API) handleDecrementCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productId")
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidProductID)
		return
	}
	a.withSession(r, func(sess *cartuc.Session) {
		writeJSON(w, http.StatusOK, sess.DecrementItem(r.Context(), id))
	})
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productId")
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidProductID)
		return
	}
	a.withSession(r, func(sess *cartuc.Session) {
		writeJSON(w, http.StatusOK, sess.RemoveItem(r.Context(), id))
	})
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	a.withSession(r, func(sess *cartuc.Session) {
		writeJSON(w, http.StatusOK, sess.Clear(r.Context()))
	})
}

package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	cartuc "example.com/stylino-storefront/internal/usecase/cart"
	checkoutuc "example.com/stylino-storefront/internal/usecase/checkout"
)

const formContentType = "application/x-www-form-urlencoded"

type checkoutRequest struct {
	Mobile string `json:"mobile" validate:"max=32"`
	Email  string `json:"email" validate:"max=254"`
}

type checkoutResponse struct {
	RedirectURL string `json:"redirectUrl"`
	OrderID     int64  `json:"orderId"`
	Authority   string `json:"authority"`
	Amount      int64  `json:"amount"`
}

type authRequiredResponse struct {
	Error       string `json:"error"`
	RedirectURL string `json:"redirectUrl"`
}

// handleCheckout serves two kinds of caller. Script clients get the gateway
// or sign-in URL as JSON and navigate themselves. A plain HTML form post, or
// any request that accepts text/html, is sent there with 303 See Other.
func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := a.decodeCheckout(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	navigate := isFormPost(r) || acceptsHTML(r)

	var (
		handoff *checkoutuc.Handoff
		err     error
	)
	a.withSession(r, func(sess *cartuc.Session) {
		handoff, err = a.checkoutSvc.Checkout(r.Context(), checkoutuc.Input{
			Token:  bearerToken(r),
			Cart:   sess,
			Mobile: req.Mobile,
			Email:  req.Email,
		})
	})
	if err != nil {
		var authErr *checkoutuc.AuthRequiredError
		if errors.As(err, &authErr) {
			if navigate {
				http.Redirect(w, r, authErr.RedirectURL, http.StatusSeeOther)
				return
			}
			writeJSON(w, http.StatusUnauthorized, authRequiredResponse{Error: err.Error(), RedirectURL: authErr.RedirectURL})
			return
		}
		handleDomainError(w, err)
		return
	}

	w.Header().Set("X-Payment-Authority", handoff.Authority)
	if navigate {
		http.Redirect(w, r, handoff.RedirectURL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{
		RedirectURL: handoff.RedirectURL,
		OrderID:     handoff.OrderID,
		Authority:   handoff.Authority,
		Amount:      handoff.AmountMinorUnits,
	})
}

// decodeCheckout reads the contact fields from either a JSON body or an
// urlencoded form.
func (a *API) decodeCheckout(r *http.Request, req *checkoutRequest) error {
	if !isFormPost(r) {
		return a.decodeAndValidate(r, req)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	req.Mobile = r.PostForm.Get("mobile")
	req.Email = r.PostForm.Get("email")
	return a.validator.Struct(req)
}

func (a *API) handleCheckoutContact(w http.ResponseWriter, r *http.Request) {
	contact, err := a.checkoutSvc.Prefill(r.Context(), bearerToken(r))
	if err != nil {
		var authErr *checkoutuc.AuthRequiredError
		if errors.As(err, &authErr) {
			writeJSON(w, http.StatusUnauthorized, authRequiredResponse{Error: err.Error(), RedirectURL: authErr.RedirectURL})
			return
		}
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapContact(contact))
}

func mapContact(c checkoutuc.Contact) map[string]any {
	return map[string]any{
		"name":        c.Name,
		"mobile":      c.Mobile,
		"email":       c.Email,
		"canCheckout": c.CanCheckout,
	}
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == formContentType
}

func acceptsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "text/html" {
			return true
		}
	}
	return false
}

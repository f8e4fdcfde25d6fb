package http

import (
	"net/http"

	dompayment "example.com/stylino-storefront/internal/domain/payment"
)

// handlePaymentResult reflects the gateway's return redirect back as JSON.
// It only reads the query string and never contacts the backend.
func (a *API) handlePaymentResult(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dompayment.ParseResult(r.URL.Query()))
}

package payment

import "math"

// SessionRequest asks the backend to open a gateway payment for one order.
// Mobile and Email are nil when the customer left them blank.
type SessionRequest struct {
	OrderID          int64
	AmountMinorUnits int64
	Description      string
	Mobile           *string
	Email            *string
}

// Session is the backend's answer: where to send the browser next.
type Session struct {
	RedirectURL string
	Authority   string
	Code        int
	Message     string
}

// RoundAmount rounds halves towards positive infinity, the same way the
// storefront has always rounded order totals before payment.
func RoundAmount(total float64) int64 {
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return int64(math.Floor(total + 0.5))
}

package payment

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Outcome is the status the gateway return reports.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is what the gateway callback reported, as carried on the return
// redirect. Optional fields are empty strings or a nil Amount when absent.
type Result struct {
	Outcome      Outcome  `json:"outcome"`
	OrderID      string   `json:"orderId,omitempty"`
	ReferenceID  string   `json:"referenceId,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	ErrorCode    string   `json:"errorCode,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// ParseResult reads the return-trip query of the payment callback. It never
// fails: unexpected values degrade to a failure outcome or absent fields.
func ParseResult(q url.Values) Result {
	res := Result{Outcome: OutcomeFailure}
	if q.Get("status") == "success" {
		res.Outcome = OutcomeSuccess
	}
	res.OrderID = q.Get("orderId")
	res.ReferenceID = q.Get("refId")
	res.ErrorCode = q.Get("code")
	res.ErrorMessage = strings.ReplaceAll(q.Get("message"), "+", " ")
	res.Amount = parseAmount(q.Get("amount"))
	return res
}

func parseAmount(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

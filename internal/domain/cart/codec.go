package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Encode serialises the full item list for a storage slot.
// An empty cart is stored as [] rather than null.
func Encode(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// Decode restores a cart from a slot payload. Missing or malformed payloads
// yield an empty cart; decoding never fails.
func Decode(payload []byte) *Cart {
	items, err := DecodeItems(payload)
	if err != nil {
		return New()
	}
	return FromItems(items)
}

// DecodeItems is the strict form of Decode, for callers that want to report
// a discarded payload. A blank payload decodes to no items.
func DecodeItems(payload []byte) ([]LineItem, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CoerceQuantity turns a loosely typed quantity (as decoded from JSON or a
// form) into an integer. Anything that is not a finite number becomes 0,
// fractions are truncated and large values saturate at MaxQuantity, so
// AddItem will clamp the result to at least 1.
func CoerceQuantity(raw any) int64 {
	switch v := raw.(type) {
	case int:
		return bound(int64(v))
	case int32:
		return bound(int64(v))
	case int64:
		return bound(v)
	case float64:
		return truncate(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return bound(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return truncate(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return truncate(f)
	default:
		return 0
	}
}

func truncate(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= float64(MaxQuantity) {
		return MaxQuantity
	}
	if f <= -float64(MaxQuantity) {
		return -MaxQuantity
	}
	return int64(f)
}

func bound(n int64) int64 {
	if n > MaxQuantity {
		return MaxQuantity
	}
	if n < -MaxQuantity {
		return -MaxQuantity
	}
	return n
}

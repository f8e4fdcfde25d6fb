package cart

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Load for a slot that was never written.
var ErrSlotNotFound = errors.New("cart slot not found")

// SlotRepository stores one serialised cart per slot key.
// Load returns ErrSlotNotFound when nothing has been saved under key.
type SlotRepository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

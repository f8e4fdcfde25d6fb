package memory

import (
	"context"
	"sync"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

// SlotRepository keeps cart slots in process memory. Contents are lost on
// restart, which makes it suitable for development and tests only.
type SlotRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewSlotRepository returns an empty in-process store.
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{slots: make(map[string][]byte)}
}

func (r *SlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payload, ok := r.slots[key]
	if !ok {
		return nil, domcart.ErrSlotNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (r *SlotRepository) Save(ctx context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = append([]byte(nil), payload...)
	return nil
}

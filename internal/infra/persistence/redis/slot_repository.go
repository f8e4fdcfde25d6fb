package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

// Client is the part of *redis.Client the repository uses.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// SlotRepository stores each slot as a plain string key. Keys never expire.
type SlotRepository struct {
	client Client
}

// NewSlotRepository stores slots as plain string keys on client.
func NewSlotRepository(client Client) *SlotRepository {
	return &SlotRepository{client: client}
}

func (r *SlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domcart.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *SlotRepository) Save(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, key, payload, 0).Err()
}

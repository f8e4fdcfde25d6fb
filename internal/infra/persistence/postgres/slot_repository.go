package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

const createSlotTable = `
CREATE TABLE IF NOT EXISTS cart_slots (
    slot_key   TEXT        PRIMARY KEY,
    payload    JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SlotRepository keeps each slot as one row of the cart_slots table.
type SlotRepository struct {
	db DB
}

func NewSlotRepository(db DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// EnsureSchema creates cart_slots if it does not exist.
func (r *SlotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, createSlotTable)
	return err
}

// Load returns the payload as text rather than the decoded jsonb so the
// caller sees exactly what was stored.
func (r *SlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := r.db.QueryRow(ctx, `SELECT payload::text FROM cart_slots WHERE slot_key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domcart.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Save upserts the slot row with ON CONFLICT.
func (r *SlotRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO cart_slots (slot_key, payload, updated_at)
        VALUES ($1, $2::jsonb, now())
        ON CONFLICT (slot_key) DO UPDATE
        SET payload = EXCLUDED.payload, updated_at = now()
    `, key, string(payload))
	return err
}

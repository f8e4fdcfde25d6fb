package mysql

import (
	"context"
	"database/sql"
	"errors"

	domcart "example.com/stylino-storefront/internal/domain/cart"
)

const createSlotTable = `
CREATE TABLE IF NOT EXISTS cart_slots (
    slot_key   VARCHAR(191) NOT NULL PRIMARY KEY,
    payload    MEDIUMTEXT   NOT NULL,
    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

// SlotRepository keeps each slot as one row of the cart_slots table.
type SlotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// EnsureSchema creates cart_slots if it does not exist.
func (r *SlotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createSlotTable)
	return err
}

func (r *SlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `
        SELECT payload
        FROM cart_slots
        WHERE slot_key = ?
    `, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domcart.ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save upserts the slot row.
func (r *SlotRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO cart_slots (slot_key, payload)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE payload = VALUES(payload)
    `, key, payload)
	return err
}

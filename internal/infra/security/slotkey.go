package security

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// SlotKeys maps a browser session id to its storage slot key. The raw session
// id never reaches the slot repository.
type SlotKeys struct {
	prefix string
}

// NewSlotKeys derives keys under prefix.
func NewSlotKeys(prefix string) *SlotKeys {
	return &SlotKeys{prefix: prefix}
}

// For returns the slot key for a browser session id. The id itself never
// appears in the key.
func (k *SlotKeys) For(sessionID string) string {
	sum := blake2b.Sum256([]byte(sessionID))
	return k.prefix + ":" + hex.EncodeToString(sum[:])
}

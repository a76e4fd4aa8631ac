package store

import (
	"context"
	"errors"

	"github.com/mcdev12/typerace/go/internal/models"
)

// Snapshot is the full player-record mapping for one room.
type Snapshot map[string]models.PlayerRecord

// ErrStoreUnavailable indicates the shared store could not be reached. It is
// never fatal: sessions keep serving their local view and report degraded
// sync until the transport recovers.
var ErrStoreUnavailable = errors.New("room store unavailable")

// Store is the keyed publish/subscribe store that room sessions coordinate
// through. Upserts replace the whole record for a key. Subscribers observe
// the current mapping once immediately and then on every subsequent change.
// No ordering is guaranteed between writes from different players, but one
// player's sequential writes arrive at subscribers in the order written.
type Store interface {
	// Upsert replaces the record stored for the player.
	Upsert(ctx context.Context, roomID, playerID string, record models.PlayerRecord) error

	// Subscribe invokes onSnapshot with the room's current mapping and again
	// after every change, until the returned unsubscribe func is called.
	Subscribe(ctx context.Context, roomID string, onSnapshot func(Snapshot)) (func(), error)

	// Delete removes the player's record. Deleting an absent record is a no-op.
	Delete(ctx context.Context, roomID, playerID string) error

	// NewPlayerID allocates a fresh player ID scoped to the room.
	NewPlayerID(roomID string) string
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, record := range s {
		out[id] = record
	}
	return out
}

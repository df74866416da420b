package pool

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/ports"
)

// Ledger maps a caller supplied reservation id to the name allocated for it, so a retried request gets the
// same name back instead of allocating another one.
type Ledger struct {
	store ports.Store
}

func NewLedger(store ports.Store) *Ledger {
	return &Ledger{store: store}
}

// Reserve records name for reservationID, overwriting any previous value. A nil error means it is committed.
func (l *Ledger) Reserve(ctx context.Context, tenant, reservationID, name string) error {
	return l.store.Set(ctx, keys.Reservation(tenant, reservationID), name, 0)
}

// Recover returns the name held by reservationID, if any.
func (l *Ledger) Recover(ctx context.Context, tenant, reservationID string) (string, bool, error) {
	return l.store.Get(ctx, keys.Reservation(tenant, reservationID))
}

// Clear deletes the reservation and reports whether it existed.
func (l *Ledger) Clear(ctx context.Context, tenant, reservationID string) (bool, error) {
	return l.store.Delete(ctx, keys.Reservation(tenant, reservationID))
}

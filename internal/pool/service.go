package pool

import (
	"context"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Service is the entry point for name requests: it ties the ledger to the picker so that a reservation id is
// answered with the same name however many times it is asked.
type Service struct {
	Allocator *Allocator
	Ledger    *Ledger
	Picker    *Picker
}

func NewService(store ports.Store, gen Generator, cfg types.Config) *Service {
	alloc := NewAllocator(store)
	return &Service{
		Allocator: alloc,
		Ledger:    NewLedger(store),
		Picker:    NewPicker(alloc, gen, cfg),
	}
}

// PickWithReservation returns the name for (tenant, reservationID). A name already reserved under the id is
// returned as RECOVERED; otherwise a new one is picked, reserved and returned as RESERVED.
//
// Picking and reserving are two separate atomic steps. If reserving fails the picked name stays in use with no
// reservation pointing at it; it is not handed back to the pool.
func (s *Service) PickWithReservation(ctx context.Context, tenant, reservationID string) (types.Pick, error) {
	if err := ValidateIDs(tenant, reservationID); err != nil {
		return types.Pick{}, err
	}
	name, ok, err := s.Ledger.Recover(ctx, tenant, reservationID)
	if err != nil {
		return types.Pick{}, err
	}
	if ok {
		return types.Pick{Name: name, ReservationID: reservationID, Outcome: types.OutcomeRecovered}, nil
	}

	name, err = s.Picker.PickName(ctx, tenant)
	if err != nil {
		return types.Pick{}, err
	}
	if err := s.Ledger.Reserve(ctx, tenant, reservationID, name); err != nil {
		log.WithFields(log.Fields{
			"tenant":        tenant,
			"reservationID": reservationID,
			"name":          name,
		}).WithError(err).Error("name picked but reservation not recorded")
		return types.Pick{}, err
	}
	log.WithFields(log.Fields{
		"tenant":        tenant,
		"reservationID": reservationID,
		"name":          name,
	}).Debug("name reserved")
	return types.Pick{Name: name, ReservationID: reservationID, Outcome: types.OutcomeReserved}, nil
}

// ValidateIDs checks tenant and entity identifiers before they are used to build store keys.
func ValidateIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return types.Err(types.ErrInvalidInput, nil, "identifiers must not be empty")
		}
		if strings.Contains(id, ":") {
			return types.Err(types.ErrInvalidInput, nil, "identifier %q must not contain ':'", id)
		}
	}
	return nil
}

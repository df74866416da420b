package pool

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/metrics"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const customScanCount = 100

// allocation is the outcome of a single attempt to take a name from the usable set.
type allocation int

const (
	allocated allocation = iota
	poolEmpty
	lostRace
)

// Allocator owns the per-tenant usable, in-use and custom name sets.
// A name moves between usable and in-use only through Store.Move, so it is never in both (and two concurrent
// allocators can never both win the same name).
type Allocator struct {
	store ports.Store
}

func NewAllocator(store ports.Store) *Allocator {
	return &Allocator{store: store}
}

// Allocate takes an arbitrary usable name and moves it to in-use. It returns ok == false when the usable set is
// empty or when a concurrent caller moved the chosen name first; in both cases the caller retries the whole
// operation.
func (a *Allocator) Allocate(ctx context.Context, tenant string) (string, bool, error) {
	name, res, err := a.allocate(ctx, tenant)
	if err != nil {
		return "", false, err
	}
	return name, res == allocated, nil
}

func (a *Allocator) allocate(ctx context.Context, tenant string) (string, allocation, error) {
	name, ok, err := a.store.RandomMember(ctx, keys.Usable(tenant))
	if err != nil {
		return "", poolEmpty, err
	}
	if !ok {
		return "", poolEmpty, nil
	}
	moved, err := a.store.Move(ctx, keys.Usable(tenant), keys.InUse(tenant), name)
	if err != nil {
		return "", poolEmpty, err
	}
	if !moved {
		return "", lostRace, nil
	}
	return name, allocated, nil
}

// Add puts name straight into in-use. It returns false if the name was already in use, or is sitting in the
// usable set where only Allocate may take it from.
func (a *Allocator) Add(ctx context.Context, tenant, name string) (bool, error) {
	return a.store.AddUnlessMember(ctx, keys.InUse(tenant), keys.Usable(tenant), name)
}

// Retire returns name to the usable set. Names that are not in use are left alone.
func (a *Allocator) Retire(ctx context.Context, tenant, name string) error {
	moved, err := a.store.Move(ctx, keys.InUse(tenant), keys.Usable(tenant), name)
	if err != nil {
		return err
	}
	if moved {
		metrics.NamesRetired.Inc()
	} else {
		log.WithFields(log.Fields{"tenant": tenant, "name": name}).Debug("retire: name was not in use")
	}
	return nil
}

// InUse reports whether name is currently allocated.
func (a *Allocator) InUse(ctx context.Context, tenant, name string) (bool, error) {
	return a.store.IsMember(ctx, keys.InUse(tenant), name)
}

// AddCustom registers an admin supplied name and makes it usable unless it is already allocated.
// It returns false if the name was already a custom name.
func (a *Allocator) AddCustom(ctx context.Context, tenant, name string) (bool, error) {
	if err := ValidateIDs(tenant); err != nil {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		return false, types.Err(types.ErrInvalidInput, nil, "name must not be empty")
	}
	added, err := a.store.Add(ctx, keys.Custom(tenant), name)
	if err != nil || !added {
		return false, err
	}
	// A generated name can already hold the same value; it then stays out of usable and only returns to the
	// pool when that channel goes away.
	if _, err := a.store.AddUnlessMember(ctx, keys.Usable(tenant), keys.InUse(tenant), name); err != nil {
		return true, err
	}
	return true, nil
}

// RemoveCustom drops a custom name and withdraws it from both usable and in-use.
// It returns false if the name was not a custom name.
func (a *Allocator) RemoveCustom(ctx context.Context, tenant, name string) (bool, error) {
	if err := ValidateIDs(tenant); err != nil {
		return false, err
	}
	removed, err := a.store.Remove(ctx, keys.Custom(tenant), name)
	if err != nil || !removed {
		return false, err
	}
	if _, err := a.store.Remove(ctx, keys.Usable(tenant), name); err != nil {
		return true, err
	}
	wasInUse, err := a.store.Remove(ctx, keys.InUse(tenant), name)
	if err != nil {
		return true, err
	}
	if wasInUse {
		log.WithFields(log.Fields{"tenant": tenant, "name": name}).Info("removed custom name that was in use")
	}
	return true, nil
}

// ListCustom returns one page of custom names. An empty cursor starts a new scan; the returned cursor is empty
// once the scan is complete.
func (a *Allocator) ListCustom(ctx context.Context, tenant, cursor string) (types.CustomNamePage, error) {
	var start uint64
	if cursor != "" {
		c, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return types.CustomNamePage{}, types.Err(types.ErrInvalidInput, err, "invalid cursor %q", cursor)
		}
		start = c
	}
	items, next, err := a.store.Scan(ctx, keys.Custom(tenant), start, customScanCount)
	if err != nil {
		return types.CustomNamePage{}, err
	}
	page := types.CustomNamePage{Items: make([]types.CustomName, 0, len(items))}
	for _, name := range items {
		inUse, err := a.InUse(ctx, tenant, name)
		if err != nil {
			return types.CustomNamePage{}, err
		}
		page.Items = append(page.Items, types.CustomName{Name: name, InUse: inUse})
	}
	if next != 0 {
		page.Cursor = strconv.FormatUint(next, 10)
	}
	return page, nil
}

package channels

import (
	"context"
	"dbuilder/internal/keys"
	"dbuilder/internal/pool"
	"dbuilder/internal/ports"
	"strconv"
	"time"
)

// Registry keeps the per-guild settings the bot consults before naming a channel: which categories are
// whitelisted for automatic names, and whether the bot has joined the guild at all.
type Registry struct {
	store ports.Store
	now   func() time.Time
}

func NewRegistry(store ports.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

func (r *Registry) CheckCategory(ctx context.Context, tenant, categoryID string) (bool, error) {
	return r.store.IsMember(ctx, keys.Categories(tenant), categoryID)
}

// WhitelistCategory returns false if the category was already whitelisted.
func (r *Registry) WhitelistCategory(ctx context.Context, tenant, categoryID string) (bool, error) {
	if err := pool.ValidateIDs(tenant, categoryID); err != nil {
		return false, err
	}
	return r.store.Add(ctx, keys.Categories(tenant), categoryID)
}

// BlacklistCategory returns false if the category was not whitelisted.
func (r *Registry) BlacklistCategory(ctx context.Context, tenant, categoryID string) (bool, error) {
	return r.store.Remove(ctx, keys.Categories(tenant), categoryID)
}

// CheckGuild returns the join record of tenant, or nil if the bot has not joined it.
func (r *Registry) CheckGuild(ctx context.Context, tenant string) (map[string]string, error) {
	return r.store.HashGetAll(ctx, keys.Joined(tenant))
}

// MarkGuild records that the bot joined (joined == true) or left the guild. It returns false when nothing
// changed.
func (r *Registry) MarkGuild(ctx context.Context, tenant string, joined bool) (bool, error) {
	if err := pool.ValidateIDs(tenant); err != nil {
		return false, err
	}
	if !joined {
		return r.store.Delete(ctx, keys.Joined(tenant))
	}
	exists, err := r.store.Exists(ctx, keys.Joined(tenant))
	if err != nil || exists {
		return false, err
	}
	n, err := r.store.HashSet(ctx, keys.Joined(tenant), map[string]string{
		"date": strconv.FormatInt(r.now().UnixMilli(), 10),
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

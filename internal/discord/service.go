package discord

import (
	"context"
	"dbuilder/internal/cache"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"time"
)

// CategoryChecker reports whether a category is whitelisted for automatic names.
type CategoryChecker interface {
	CheckCategory(ctx context.Context, tenant, categoryID string) (bool, error)
}

// Service answers the guild and category questions of the API, read-through cached.
type Service struct {
	client     *Client
	wrapper    *Wrapper
	cache      ports.Cache
	categories CategoryChecker

	guildsTTL   time.Duration
	channelsTTL time.Duration
}

func NewService(client *Client, wrapper *Wrapper, c ports.Cache, categories CategoryChecker, cfg types.Config) *Service {
	return &Service{
		client:      client,
		wrapper:     wrapper,
		cache:       c,
		categories:  categories,
		guildsTTL:   cfg.GuildsTTL,
		channelsTTL: cfg.ChannelsTTL,
	}
}

func guildsKey(identity string) string { return identity + "|guilds" }
func channelsKey(tenant string) string { return tenant + "|channels" }

// ListGuildsForUser returns every guild the identity belongs to.
func (s *Service) ListGuildsForUser(ctx context.Context, identity string) ([]types.Guild, error) {
	return cache.Cached(ctx, s.cache, guildsKey(identity), s.guildsTTL, func(ctx context.Context) ([]types.Guild, error) {
		return WithToken(ctx, s.wrapper, identity, s.client.ListGuilds)
	})
}

// ListOwnedGuilds returns the guilds the identity owns.
func (s *Service) ListOwnedGuilds(ctx context.Context, identity string) ([]types.Guild, error) {
	guilds, err := s.ListGuildsForUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	owned := make([]types.Guild, 0, len(guilds))
	for _, g := range guilds {
		if g.Owner {
			owned = append(owned, g)
		}
	}
	return owned, nil
}

// CheckOwner reports whether identity owns guildID.
func (s *Service) CheckOwner(ctx context.Context, identity, guildID string) (bool, error) {
	owned, err := s.ListOwnedGuilds(ctx, identity)
	if err != nil {
		return false, err
	}
	for _, g := range owned {
		if g.ID == guildID {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateGuilds drops the cached guild list of identity.
func (s *Service) InvalidateGuilds(ctx context.Context, identity string) error {
	return cache.Invalidate(ctx, s.cache, guildsKey(identity))
}

// ListCategories returns the category channels of the tenant's guild with their whitelist flag.
func (s *Service) ListCategories(ctx context.Context, tenant string) ([]types.Category, error) {
	channels, err := cache.Cached(ctx, s.cache, channelsKey(tenant), s.channelsTTL, func(ctx context.Context) ([]types.Channel, error) {
		return s.client.ListChannels(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Category, 0, len(channels))
	for _, ch := range channels {
		if ch.Type != types.ChannelTypeCategory {
			continue
		}
		enabled, err := s.categories.CheckCategory(ctx, tenant, ch.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Category{ID: ch.ID, Name: ch.Name, Enabled: enabled})
	}
	return out, nil
}

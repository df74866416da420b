package cmds

import (
	"context"
	"dbuilder/internal/backends"
	"dbuilder/internal/channels"
	"dbuilder/internal/discord"
	"dbuilder/internal/idp"
	"dbuilder/internal/names"
	"dbuilder/internal/pool"
	"dbuilder/internal/ports"
	"dbuilder/internal/types"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	redisbackend "dbuilder/internal/backends/redis"
)

// app is every component built from the environment.
type app struct {
	cfg      types.Config
	redis    *redis.Client
	names    *pool.Service
	assoc    *channels.Associations
	registry *channels.Registry
	platform *discord.Service
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		log.WithError(err).Warn("closing redis client")
	}
}

func configureLogging(cfg types.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := backends.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	configureLogging(cfg)

	cli, err := backends.RedisClientFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, redis: cli}
	store := redisbackend.NewStore(cli)

	gen, err := names.New()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.names = pool.NewService(store, gen, cfg)
	a.registry = channels.NewRegistry(store)
	a.assoc = channels.NewAssociations(store, a.names.Ledger, a.names.Allocator)

	publisher, err := backends.PublisherFromEnv()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.assoc.WithEvents(publisher, cfg.EventsTopicARN)
	return a, nil
}

// withPlatform adds the platform side. It is skipped when no bot token is configured.
func (a *app) withPlatform() error {
	if a.cfg.DiscordBotToken == "" {
		log.Warn("DISCORD_BOT_TOKEN not set, platform and category routes answer 503")
		return nil
	}
	creds, err := backends.CredentialBackendFromEnv(a.redis)
	if err != nil {
		return err
	}
	c, err := backends.CacheBackendFromEnv(a.redis)
	if err != nil {
		return err
	}
	var provider ports.IdentityProvider
	if a.cfg.IdPDomain != "" {
		provider = idp.New(a.cfg, nil)
	}
	wrapper := discord.NewWrapper(creds, provider, discord.NewRefresher(a.cfg, nil))
	a.platform = discord.NewService(discord.NewClient(a.cfg, nil), wrapper, c, a.registry, a.cfg)
	return nil
}

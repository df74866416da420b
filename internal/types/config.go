package types

import (
	"fmt"
	"time"
)

// Config drives the behavior of the service. It is read from the environment once at startup (see
// backends.ConfigFromEnv) and handed to the components that need it.
// MaxGenerateAttempts bounds the generate-then-add loop used when a tenant's usable pool is empty.
// GuildsTTL and ChannelsTTL are the read-through cache windows for upstream list calls.
// DiscordBotToken is used for guild-scoped calls that are not made on behalf of a user.
type Config struct {
	LogLevel  string
	LogFormat string

	MaxGenerateAttempts int
	GenerateBackoffBase time.Duration
	GenerateBackoffMax  time.Duration

	GuildsTTL   time.Duration
	ChannelsTTL time.Duration

	DiscordAPIBase      string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordBotToken     string

	IdPDomain       string
	IdPClientID     string
	IdPClientSecret string
	IdPConnection   string

	EventsTopicARN string
}

const (
	DefaultMaxGenerateAttempts = 16
	DefaultGenerateBackoffBase = 5 * time.Millisecond
	DefaultGenerateBackoffMax  = 200 * time.Millisecond

	DefaultGuildsTTL   = 600 * time.Second
	DefaultChannelsTTL = 30 * time.Second

	DefaultDiscordAPIBase = "https://discord.com/api"
	DefaultIdPConnection  = "discord"
)

func DefaultConfig() Config {
	return Config{
		LogLevel:            "info",
		MaxGenerateAttempts: DefaultMaxGenerateAttempts,
		GenerateBackoffBase: DefaultGenerateBackoffBase,
		GenerateBackoffMax:  DefaultGenerateBackoffMax,
		GuildsTTL:           DefaultGuildsTTL,
		ChannelsTTL:         DefaultChannelsTTL,
		DiscordAPIBase:      DefaultDiscordAPIBase,
		IdPConnection:       DefaultIdPConnection,
	}
}

func (c Config) Validate() error {
	if c.MaxGenerateAttempts <= 0 {
		return fmt.Errorf("max_generate_attempts must be positive")
	}
	if c.GenerateBackoffBase < 0 || c.GenerateBackoffMax < c.GenerateBackoffBase {
		return fmt.Errorf("generate backoff must satisfy 0 <= base <= max")
	}
	if c.GuildsTTL <= 0 || c.ChannelsTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.DiscordAPIBase == "" {
		return fmt.Errorf("discord_api_base is required")
	}
	return nil
}

// Package backends builds the configuration and the concrete store, cache and publisher implementations from
// environment variables.
package backends

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"dbuilder/internal/backends/ddb"
	"dbuilder/internal/cache"
	"dbuilder/internal/ports"
	"dbuilder/internal/pub"
	"dbuilder/internal/types"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"

	redisbackend "dbuilder/internal/backends/redis"
)

const (
	CredentialBackendEnvKey = "CREDENTIAL_BACKEND"
	CacheBackendEnvKey      = "CACHE_BACKEND"
	BackendDDB              = "ddb"
	BackendRedis            = "redis"
	BackendMemory           = "memory"

	DDBEndpointKey = "DDB_ENDPOINT"
	DDBTableKey    = "DDB_TABLE"

	SNSEndpointKey    = "SNS_ENDPOINT"
	EventsTopicARNKey = "EVENTS_TOPIC_ARN"

	RedisURL   = "REDIS_URL"
	RedisHost  = "REDIS_HOST"
	RedisPort  = "REDIS_PORT"
	RedisUser  = "REDIS_USER"
	RedisPass  = "REDIS_PASS"
	RedisTLS   = "REDIS_SSL"
	RedisDBNum = "REDIS_DB_NUM"

	LogLevelKey  = "LOG_LEVEL"
	LogFormatKey = "LOG_FORMAT"

	MaxAttemptsKey = "NAME_MAX_ATTEMPTS"

	DiscordAPIBaseKey      = "DISCORD_API_BASE"
	DiscordClientIDKey     = "DISCORD_CLIENT_ID"
	DiscordClientSecretKey = "DISCORD_CLIENT_SECRET"
	DiscordBotTokenKey     = "DISCORD_BOT_TOKEN"

	IdPDomainKey       = "AUTH0_DOMAIN"
	IdPClientIDKey     = "AUTH0_CLIENT_ID"
	IdPClientSecretKey = "AUTH0_CLIENT_SECRET"
	IdPConnectionKey   = "AUTH0_CONNECTION"

	defaultDDBTable = "dbuilder"
)

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// ConfigFromEnv reads types.Config from the environment on top of types.DefaultConfig and validates it.
func ConfigFromEnv() (types.Config, error) {
	cfg := types.DefaultConfig()
	cfg.LogLevel = getenv(LogLevelKey, cfg.LogLevel)
	cfg.LogFormat = getenv(LogFormatKey, cfg.LogFormat)

	if v := os.Getenv(MaxAttemptsKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, types.Err(types.ErrInvalidInput, err, "%s=%q", MaxAttemptsKey, v)
		}
		cfg.MaxGenerateAttempts = n
	}

	cfg.DiscordAPIBase = getenv(DiscordAPIBaseKey, cfg.DiscordAPIBase)
	cfg.DiscordClientID = os.Getenv(DiscordClientIDKey)
	cfg.DiscordClientSecret = os.Getenv(DiscordClientSecretKey)
	cfg.DiscordBotToken = os.Getenv(DiscordBotTokenKey)

	cfg.IdPDomain = os.Getenv(IdPDomainKey)
	cfg.IdPClientID = os.Getenv(IdPClientIDKey)
	cfg.IdPClientSecret = os.Getenv(IdPClientSecretKey)
	cfg.IdPConnection = getenv(IdPConnectionKey, cfg.IdPConnection)

	cfg.EventsTopicARN = os.Getenv(EventsTopicARNKey)

	if err := cfg.Validate(); err != nil {
		return cfg, types.Err(types.ErrInvalidInput, err, "")
	}
	return cfg, nil
}

// CredentialBackendFromEnv constructs a CredentialStore based on the "CREDENTIAL_BACKEND" env var.
// Supported backends are "redis" (the default, sharing cli) and "ddb" (DynamoDB).
func CredentialBackendFromEnv(cli redis.UniversalClient) (ports.CredentialStore, error) {
	switch backend := os.Getenv(CredentialBackendEnvKey); backend {
	case BackendRedis, "":
		return redisbackend.NewCredentialStore(redisbackend.NewStore(cli)), nil
	case BackendDDB:
		ddbClient, err := ddbClientFromEnv()
		if err != nil {
			return nil, err
		}
		return ddb.NewCredentialStore(getenv(DDBTableKey, defaultDDBTable), ddbClient), nil
	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "%s=%q", CredentialBackendEnvKey, backend)
	}
}

// CacheBackendFromEnv constructs the read-through cache based on the "CACHE_BACKEND" env var.
// Supported backends are "redis" (the default, sharing cli) and "memory" (in-process, single node).
func CacheBackendFromEnv(cli redis.UniversalClient) (ports.Cache, error) {
	switch backend := os.Getenv(CacheBackendEnvKey); backend {
	case BackendRedis, "":
		return redisbackend.NewCache(cli), nil
	case BackendMemory:
		return cache.NewMemory(), nil
	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "%s=%q", CacheBackendEnvKey, backend)
	}
}

// PublisherFromEnv returns an SNS publisher when "EVENTS_TOPIC_ARN" is set, otherwise a publisher that drops
// every event.
func PublisherFromEnv() (ports.Publisher, error) {
	if os.Getenv(EventsTopicARNKey) == "" {
		return pub.Noop{}, nil
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, err
	}
	endpoint := os.Getenv(SNSEndpointKey)
	cli := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpoint != "" {
			// Local testing only.
			o.BaseEndpoint = aws.String(endpoint)
			o.Region = getenv("AWS_REGION", "us-east-1")
			o.Credentials = localCredentials()
		}
	})
	return pub.NewSNS(cli), nil
}

// ddbClientFromEnv creates a DynamoDB client from environment variables, if any.
func ddbClientFromEnv() (*dynamodb.Client, error) {
	var ddbEndpoint *string
	de := os.Getenv(DDBEndpointKey)
	if de != "" {
		ddbEndpoint = aws.String(de)
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())

	if err != nil {
		return nil, err
	}

	ddbClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ddbEndpoint != nil {
			// This is used for testing only locally
			o.BaseEndpoint = ddbEndpoint
			o.Region = getenv("AWS_REGION", "us-east-1")
			o.Credentials = localCredentials()
		}
	})
	return ddbClient, nil
}

func localCredentials() aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider(
		getenv("AWS_ACCESS_KEY_ID", "x"),
		getenv("AWS_SECRET_ACCESS_KEY", "x"),
		"",
	)
}

// RedisClientFromEnv creates a Redis client from REDIS_URL, or from the REDIS_* host variables when it is
// unset, and pings it.
func RedisClientFromEnv(ctx context.Context) (*redis.Client, error) {
	opts, err := redisOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	redisClient := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, types.Err(types.ErrDataStoreAccess, err, "failed to ping Redis")
	}
	return redisClient, nil
}

func redisOptionsFromEnv() (*redis.Options, error) {
	if u := os.Getenv(RedisURL); u != "" {
		opts, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", RedisURL, err)
		}
		return opts, nil
	}

	host := getenv(RedisHost, "localhost")
	port := getenv(RedisPort, "6379")
	user := os.Getenv(RedisUser)
	pass := os.Getenv(RedisPass)
	tlsEnabled := parseBoolean(getenv(RedisTLS, "false"))
	dbNumStr := getenv(RedisDBNum, "0")
	dbNum, err := strconv.Atoi(dbNumStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis DB number: %w", err)
	}

	var tlsConfig *tls.Config
	if tlsEnabled {
		// Create a CA certificate pool and add our CA certificate
		caCerts := x509.NewCertPool()
		if !caCerts.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to retrieve CA certificate")
		}
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCerts,
		}
	}

	return &redis.Options{
		Addr:      fmt.Sprintf("%s:%s", host, port),
		Username:  user,
		Password:  pass,
		DB:        dbNum,
		TLSConfig: tlsConfig,
	}, nil
}

// getenv retrieves the value of the environment variable named by the key.
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func parseBoolean(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

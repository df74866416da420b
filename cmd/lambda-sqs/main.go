//go:build lambda

package main

import (
	"context"
	"dbuilder/internal/backends"
	"dbuilder/internal/channels"
	"dbuilder/internal/lifecycle"
	"dbuilder/internal/names"
	"dbuilder/internal/pool"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	redisbackend "dbuilder/internal/backends/redis"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("The .env file not found.")
	}

	ctx := context.Background()

	cfg, err := backends.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	redisClient, err := backends.RedisClientFromEnv(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	publisher, err := backends.PublisherFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize publisher: %v", err)
	}

	store := redisbackend.NewStore(redisClient)
	svc := pool.NewService(store, names.MustNew(), cfg)
	assoc := channels.NewAssociations(store, svc.Ledger, svc.Allocator).WithEvents(publisher, cfg.EventsTopicARN)

	// Create handler
	handler := &lifecycle.Handler{
		Channels: assoc,
		Guilds:   channels.NewRegistry(store),
	}

	// Start Lambda runtime
	lambda.Start(handler.HandleSQSEvent)
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"classroom/internal/config"
	"classroom/internal/logger"
	"classroom/internal/pgmq"

	"cloud.google.com/go/pubsub"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Creates the course events topic (or queue) for local development.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on system environment variables.")
	}

	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.CourseEventsTopic == "" {
		logger.Fatal().Msg("COURSE_EVENTS_TOPIC is not set; nothing to create.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.EventsBackend {
	case config.EventsPGMQ:
		setupQueue(ctx, cfg, logger)
	default:
		setupTopic(ctx, cfg, logger)
	}
	logger.Info().Msg("Course events setup complete.")
}

func setupQueue(ctx context.Context, cfg *config.Config, logger zerolog.Logger) {
	db, err := sql.Open("pgx", cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := pgmq.New(db).EnsureQueue(ctx, cfg.CourseEventsTopic); err != nil {
		logger.Fatal().Msgf("Failed to create queue %s: %v", cfg.CourseEventsTopic, err)
	}
	logger.Info().Msgf("Queue %s is ready", cfg.CourseEventsTopic)
}

func setupTopic(ctx context.Context, cfg *config.Config, logger zerolog.Logger) {
	if cfg.PubSubEmulator == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the local emulator.")
	}

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulator),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	listTopics(ctx, client, logger)

	topicID := cfg.CourseEventsTopic
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if topic %s exists: %v", topicID, err)
	}
	if !exists {
		logger.Info().Msgf("Creating topic: %s", topicID)
		if topic, err = client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{
			RetentionDuration: 7 * 24 * time.Hour,
		}); err != nil {
			logger.Fatal().Msgf("Failed to create topic %s: %v", topicID, err)
		}
	} else {
		logger.Info().Msgf("Topic %s already exists", topicID)
	}

	// Pull subscription so events can be inspected locally.
	subID := topicID + "-sub"
	sub := client.Subscription(subID)
	exists, err = sub.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if subscription %s exists: %v", subID, err)
	}
	if exists {
		logger.Info().Msgf("Subscription %s already exists", subID)
		return
	}
	if _, err := client.CreateSubscription(ctx, subID, pubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
	}); err != nil {
		logger.Fatal().Msgf("Failed to create subscription '%s': %v", subID, err)
	}
	logger.Info().Msgf("Created subscription %s", subID)
}

func listTopics(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) {
	it := client.Topics(ctx)
	for {
		topic, err := it.Next()
		if err == iterator.Done {
			return
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list topics: %v", err)
		}
		logger.Debug().Msgf("Existing topic: %s", topic.ID())
	}
}

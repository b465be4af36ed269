package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/db"
	"github.com/arjin21/omerpubgbagimliligi/internal/directory"
	"github.com/arjin21/omerpubgbagimliligi/internal/events"
	"github.com/arjin21/omerpubgbagimliligi/internal/handler"
	"github.com/arjin21/omerpubgbagimliligi/internal/hub"
	"github.com/arjin21/omerpubgbagimliligi/internal/media"
	"github.com/arjin21/omerpubgbagimliligi/internal/middleware"
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/arjin21/omerpubgbagimliligi/internal/repo"
	"github.com/arjin21/omerpubgbagimliligi/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ConversationHandler handler.ConversationHandler
	MessageHandler      handler.MessageHandler
	MonitorHandler      handler.MonitorHandler
	Hub                 *hub.Hub
	Verifier            *middleware.Verifier
	RateLimiter         *middleware.RateLimiter
	Config              Config
	Logger              *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	redisClient *redis.Client
	producer    *events.Producer
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	messageMongoRepo := db.NewRepository[model.Message](con, config.Mongo.MessagesCollection)
	conversationMongoRepo := db.NewRepository[model.Conversation](con, config.Mongo.ConversationsCollection)

	messageRepo := repo.NewMessageRepository(messageMongoRepo, logger)
	conversationRepo := repo.NewConversationRepository(conversationMongoRepo, logger)

	directoryClient := directory.NewClient(directory.ClientConfig{
		BaseURL:         config.Directory.BaseURL,
		Timeout:         config.Directory.Timeout,
		RetryMaxElapsed: 15 * time.Second,
	}, logger)

	// Attachment resolution is optional; a nil store keeps media messages
	// limited to their media id.
	var mediaStore media.Store
	if config.Media.BaseURL != "" {
		mediaStore = media.NewClient(media.ClientConfig{
			BaseURL:         config.Media.BaseURL,
			Timeout:         config.Directory.Timeout,
			RetryMaxElapsed: 15 * time.Second,
		}, logger)
	}

	var redisClient *redis.Client
	var presence *hub.PresenceStore
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		presence = hub.NewPresenceStore(redisClient, "dm", 24*time.Hour)
	}

	hub.SetAllowedOrigins(config.Server.AllowedOrigins)
	h := hub.NewHub(presence)

	conversationService := service.NewConversationService(conversationRepo, directoryClient, config.Chat.MaxParticipants, logger)

	var producer *events.Producer
	var publisher service.EventPublisher
	if len(config.Kafka.Brokers) > 0 {
		producer = events.NewProducer(config.Kafka.Brokers, config.Kafka.Topic)
		publisher = producer
	}

	messageService := service.NewMessageService(messageRepo, conversationService, mediaStore, h, publisher, logger)

	// The hub feeds inbound socket traffic back through the message
	// service; wired after construction to break the cycle.
	h.SetMessageSink(messageService)
	h.SetConversationResolver(conversationService)

	rateLimiter := middleware.NewRateLimiter(config.RateLimit.PerSecond, config.RateLimit.Burst)
	verifier := middleware.NewVerifier(config.Auth.JWTSecret)

	monitorService := hub.NewMonitorService(h)

	return &Container{
		ConversationHandler: handler.NewConversationHandler(conversationService, logger),
		MessageHandler:      handler.NewMessageHandler(messageService, logger),
		MonitorHandler:      handler.NewMonitorHandler(monitorService, presence),
		Hub:                 h,
		Verifier:            verifier,
		RateLimiter:         rateLimiter,
		Config:              *config,
		Logger:              logger,
		mongoClient:         con,
		redisClient:         redisClient,
		producer:            producer,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}

	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			c.Logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}

package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/khushik17/wee-Chat/internal/cache"
	"github.com/khushik17/wee-Chat/internal/db"
	"github.com/khushik17/wee-Chat/internal/handler"
	"github.com/khushik17/wee-Chat/internal/hub"
	"github.com/khushik17/wee-Chat/internal/jobs"
	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/provider"
	"github.com/khushik17/wee-Chat/internal/repo"
	"github.com/khushik17/wee-Chat/internal/service"
)

type Container struct {
	UserHandler  handler.UserHandler
	ChatHandler  handler.ChatHandler
	MemeHandler  handler.MemeHandler
	BotHandler   handler.BotHandler
	StatsHandler handler.StatsHandler
	Hub          *hub.Hub
	Worker       *jobs.Worker
	Config       Config
	Logger       *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	feedCache   cache.Cache
	queue       *jobs.Queue
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	userStore := db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection)
	conversationStore := db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection)
	memeStore := db.NewRepository[model.Meme](con, config.ChatDatabase.MemesCollection)
	shareStore := db.NewRepository[model.Share](con, config.ChatDatabase.SharesCollection)

	userRepo := repo.NewUserRepository(userStore, logger)
	conversationRepo := repo.NewConversationRepository(conversationStore, logger)
	memeRepo := repo.NewMemeRepository(memeStore, shareStore, logger)

	// The feed cache is optional; without redis the feed just reads Mongo.
	var feedCache cache.Cache
	if config.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(config.RedisURL)
		if err != nil {
			return nil, err
		}
		feedCache = redisCache
	} else {
		logger.Warn("REDIS_URL not set, meme feed cache disabled")
	}

	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(conversationRepo, userRepo, memeRepo, logger)
	memeService := service.NewMemeService(memeRepo, userRepo, feedCache, logger)
	botService := service.NewBotService(provider.NewAnthropicCompleter(anthropic.Model(config.Bot.Model)), logger)

	presence := hub.NewPresenceTable()
	dispatcher := hub.NewDispatcher(conversationRepo, presence, logger)
	h := hub.NewHub(presence, dispatcher)

	var queue *jobs.Queue
	var worker *jobs.Worker
	if config.RedisURL != "" {
		queue, err = jobs.NewQueue(config.RedisURL)
		if err != nil {
			return nil, err
		}

		fetcher := jobs.NewMemeFetcher(config.Memes.SourceURL, logger)
		refresh := jobs.NewMemeRefreshHandler(fetcher, memeRepo, feedCache, logger)
		worker, err = jobs.NewWorker(config.RedisURL, config.Worker.Concurrency, refresh, logger)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("REDIS_URL not set, meme refresh queue disabled")
	}

	return &Container{
		UserHandler:  handler.NewUserHandler(userService),
		ChatHandler:  handler.NewChatHandler(chatService),
		MemeHandler:  handler.NewMemeHandler(memeService, queue),
		BotHandler:   handler.NewBotHandler(botService),
		StatsHandler: handler.NewStatsHandler(h),
		Hub:          h,
		Worker:       worker,
		Config:       *config,
		Logger:       logger,
		mongoClient:  con,
		feedCache:    feedCache,
		queue:        queue,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Worker != nil {
		c.Worker.Stop()
	}
	if c.queue != nil {
		_ = c.queue.Close()
	}
	if c.feedCache != nil {
		_ = c.feedCache.Close()
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

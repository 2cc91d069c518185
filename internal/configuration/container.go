package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/MBSciTech/EcoChat/internal/auth"
	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/handler"
	"github.com/MBSciTech/EcoChat/internal/hub"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"github.com/MBSciTech/EcoChat/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	AuthHandler    handler.AuthHandler
	GroupHandler   handler.GroupHandler
	MessageHandler handler.MessageHandler
	Tokens         *auth.TokenManager
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	userRepo := repo.NewUserRepository(db.NewRepository[model.User](con, config.Mongo.UsersCollection), logger)
	groupRepo := repo.NewGroupRepository(db.NewRepository[model.Group](con, config.Mongo.GroupsCollection), logger)
	messageRepo := repo.NewMessageRepository(db.NewRepository[model.Message](con, config.Mongo.MessagesCollection), logger)

	tokens := auth.NewTokenManager(config.Auth.TokenSecret, config.Auth.TokenTTL())

	// Hub persists presence through the user repository
	socketHub := hub.NewHub(userRepo, tokens, config.Server.AllowedOrigins, logger)
	chatHandler := hub.NewChatHandler(socketHub, messageRepo, groupRepo, userRepo, logger)
	socketHub.SetHandler(chatHandler.HandleEvent)

	authService := service.NewAuthService(userRepo, tokens, logger)
	groupService := service.NewGroupService(groupRepo, logger)
	messageService := service.NewMessageService(messageRepo, groupRepo)

	return &Container{
		AuthHandler:    handler.NewAuthHandler(authService),
		GroupHandler:   handler.NewGroupHandler(groupService),
		MessageHandler: handler.NewMessageHandler(messageService),
		Tokens:         tokens,
		Hub:            socketHub,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
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

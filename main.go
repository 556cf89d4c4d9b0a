package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BekaChkhiro/rideway-api-sub002/config"
	"github.com/BekaChkhiro/rideway-api-sub002/controllers"
	"github.com/BekaChkhiro/rideway-api-sub002/logger"
	"github.com/BekaChkhiro/rideway-api-sub002/middlewares"
	"github.com/BekaChkhiro/rideway-api-sub002/models"
	"github.com/BekaChkhiro/rideway-api-sub002/repositories"
	"github.com/BekaChkhiro/rideway-api-sub002/routes"
	"github.com/BekaChkhiro/rideway-api-sub002/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Debug)
	defer log.Sync() //nolint:errcheck

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// repositories
	convRepo := repositories.NewConversationRepository(db)
	msgRepo := repositories.NewMessageRepository(db)
	tokenRepo := repositories.NewDeviceTokenRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	blocks := repositories.NewBlockChecker(db)

	// realtime gateway
	hub := services.NewHub(log)
	hub.SetPresenceResolver(func(userID string) bool {
		pref, err := notifRepo.GetPreferences(context.Background(), userID)
		if err != nil {
			return false
		}
		return pref.AppearOffline
	})
	hub.SetOfflineCallback(func(userID string) {
		if err := userRepo.TouchLastSeen(context.Background(), userID, time.Now()); err != nil {
			log.Warn("failed to persist last seen", zap.String("user_id", userID), zap.Error(err))
		}
	})

	// push pipeline
	provider, err := services.NewFCMProvider(context.Background(), cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Fatal("failed to init push provider", zap.Error(err))
	}
	if provider == nil {
		log.Info("push provider not configured, deliveries will no-op")
	}

	tokenService := services.NewDeviceTokenService(tokenRepo, log)
	var pushProvider services.PushProvider
	if provider != nil {
		pushProvider = provider
	}
	worker := services.NewPushWorker(pushProvider, tokenService, log)
	queue := services.NewPushQueue(worker.Handle, cfg.PushWorkers, cfg.PushQueueSize, cfg.PushMaxAttempts, cfg.PushBaseBackoff, log)

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	// cancel first so retrying jobs abandon their backoff before Stop waits
	defer func() {
		cancel()
		queue.Stop()
	}()

	// domain services
	notifService := services.NewNotificationService(notifRepo, hub, queue, log)
	chatService := services.NewChatService(convRepo, msgRepo, userRepo, blocks, hub, notifService, log)

	router := services.NewEventRouter(hub, chatService, userRepo, func(token string) (string, error) {
		return middlewares.ParseUserID(cfg.JWTSecret, token)
	}, log)

	// retention sweep for dead device tokens
	go func() {
		ticker := time.NewTicker(cfg.TokenSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := tokenService.DeleteInactive(ctx, cfg.TokenRetentionDays); err != nil {
					log.Error("device token sweep failed", zap.Error(err))
				}
			}
		}
	}()

	engine := routes.Register(cfg, routes.Controllers{
		Chat:          controllers.NewChatController(chatService),
		Notifications: controllers.NewNotificationController(notifService),
		Devices:       controllers.NewDeviceController(tokenService),
		WS:            controllers.NewWSController(hub, router),
	})

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/filezingme/BibiChat-sub000/internal/config"
	"github.com/filezingme/BibiChat-sub000/internal/controller"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/handler"
	"github.com/filezingme/BibiChat-sub000/internal/metrics"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/mailer"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/presence"
	"github.com/filezingme/BibiChat-sub000/internal/repository/memory"
	"github.com/filezingme/BibiChat-sub000/internal/repository/unitofwork"
	"github.com/filezingme/BibiChat-sub000/internal/service"
	"github.com/filezingme/BibiChat-sub000/internal/websocket"
	"github.com/filezingme/BibiChat-sub000/pkg/events"
	pktNats "github.com/filezingme/BibiChat-sub000/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	NotificationController  controller.INotificationController
	DirectMessageController controller.IDirectMessageController
	ChatLogController       controller.IChatLogController
	PresenceController      controller.IPresenceController

	// WebSockets
	SocketHandler *handler.SocketHandler
	WebSocketHub  *websocket.Hub

	// Background services (started by cmd/rest)
	ConsumerService service.IConsumerService
	Scheduler       *service.NotificationScheduler

	Logger logger.ILogger

	bus     events.Bus
	rdb     *redis.Client
	offline service.IOfflineNotifier
}

// NewContainer wires every component. ctx bounds the lifetime of socket sessions.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	tokens := serverutils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	auth := serverutils.NewJwtMiddleware(tokens)

	directory := memory.NewUserDirectory(uowFactory, cfg.Realtime.UserCacheTTL)

	// 2. Event bus: JetStream when configured, otherwise in-process
	bus := newEventBus(cfg, sysLogger)

	// 3. Redis relay (optional)
	rdb := newRedisClient(cfg.App.RedisURL)

	// 4. Socket gateway
	tracker := presence.NewTracker(cfg.Realtime.PresenceThreshold)
	metrics.RegisterOnlineUsers(func() int { return len(tracker.OnlineUsers()) })
	router := websocket.NewRouter()
	wsHub := websocket.NewHub(tokens, tracker, router, rdb, wsLogger, websocket.Options{SendBuffer: cfg.Realtime.SendBuffer})
	go wsHub.Run(ctx)

	// 5. Services
	var emailService mailer.IEmailService
	if cfg.SMTP.Enabled() {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.App.ClientURL,
		)
	}
	offline := service.NewOfflineNotifier(emailService, tracker, directory, sysLogger)

	notificationService := service.NewNotificationService(uowFactory, wsHub, directory, bus, offline, sysLogger)
	directMessageService := service.NewDirectMessageService(uowFactory, wsHub, directory, bus, offline, sysLogger)
	chatLogService := service.NewChatLogService(uowFactory, sysLogger)
	consumerService := service.NewConsumerService(bus, notificationService, chatLogService, sysLogger)

	scheduler, err := service.NewNotificationScheduler(cfg.Realtime.SweepSpec, notificationService, sysLogger)
	if err != nil {
		return nil, err
	}

	// 6. Inbound socket commands
	websocket.Handle(router, websocket.InboundTouch, func(ctx context.Context, c *websocket.Client, _ websocket.TouchCommand) error {
		tracker.Touch(c.UserID)
		return nil
	})
	websocket.Handle(router, websocket.InboundNotificationRead, func(ctx context.Context, c *websocket.Client, cmd websocket.NotificationReadCommand) error {
		viewer := entity.Viewer{UserID: c.UserID, Role: entity.UserRole(c.Role)}
		return notificationService.MarkRead(ctx, viewer, cmd.NotificationID)
	})

	// 7. Controllers
	return &Container{
		NotificationController:  controller.NewNotificationController(notificationService, auth),
		DirectMessageController: controller.NewDirectMessageController(directMessageService, auth),
		ChatLogController:       controller.NewChatLogController(chatLogService, auth),
		PresenceController:      controller.NewPresenceController(tracker, auth),

		SocketHandler: handler.NewSocketHandler(ctx, wsHub, wsLogger),
		WebSocketHub:  wsHub,

		ConsumerService: consumerService,
		Scheduler:       scheduler,

		Logger:  sysLogger,
		bus:     bus,
		rdb:     rdb,
		offline: offline,
	}, nil
}

func newEventBus(cfg *config.Config, sysLogger logger.ILogger) events.Bus {
	if cfg.App.NatsURL != "" {
		natsBus, err := pktNats.NewBus(cfg.App.NatsURL, sysLogger)
		if err == nil {
			log.Printf("[INFO] Using NATS JetStream event bus at %s", cfg.App.NatsURL)
			return natsBus
		}
		log.Printf("[WARN] Failed to connect to NATS: %v. Falling back to in-process bus", err)
	}

	return events.NewChannelBus(watermill.NewStdLogger(false, false), func(eventType string, err error) {
		sysLogger.Error("EventBus", "Event handler failed", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	})
}

func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Cross-instance relay disabled", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close stops background work and releases external connections.
func (c *Container) Close() {
	c.Scheduler.Stop()
	c.offline.Wait()
	if err := c.bus.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}

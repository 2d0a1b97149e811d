package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillbridge-admin/internal/config"
	"skillbridge-admin/internal/database"
	"skillbridge-admin/internal/handlers"
	"skillbridge-admin/internal/middleware"
	"skillbridge-admin/internal/notify"
	"skillbridge-admin/internal/sessions"
	"skillbridge-admin/internal/store"
	"skillbridge-admin/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var (
	serverStartTime = time.Now()
	appVersion      = "1.0.0"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	log.Infof("SkillBridge admin notification service v%s starting (env=%s)", appVersion, cfg.Env)

	// Store selection: Mongo when a URI is configured, process memory otherwise
	notificationStore, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize notification store: %v", err)
	}
	defer cleanup()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiration)*time.Hour)

	registry := sessions.NewRegistry(cfg.SessionWindow)

	hub := handlers.NewHub()
	go hub.Run()
	defer hub.Shutdown()

	queue := notify.NewQueue(notificationStore, []notify.Channel{
		notify.NewRealtimeChannel(hub),
		notify.NewEmailChannel(),
	}, notify.QueueOptions{
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
	})
	defer queue.Stop()

	factory := notify.NewFactory(notify.Filters{
		MutedTypes:  cfg.MutedTypes,
		MinSeverity: cfg.MinSeverity,
	})

	service := notify.NewService(factory, queue, notificationStore)

	// Background jobs: delivered-notification cleanup and session eviction
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()
	queue.StartCleanup(jobCtx, cfg.CleanupInterval, cfg.MaxDeliveredAge)
	registry.StartSweeper(jobCtx, cfg.SweepInterval)

	router := setupRouter(cfg, service, registry, hub, jwtManager)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infof("server listening on http://%s:%s", cfg.Host, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("server forced to shutdown: %v", err)
	} else {
		log.Info("server gracefully stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.InfoLevel)
	} else {
		gin.SetMode(gin.DebugMode)
		log.SetLevel(log.DebugLevel)
	}
}

func buildStore(cfg *config.Config) (store.NotificationStore, func(), error) {
	if cfg.MongoURI == "" {
		log.Info("using in-memory notification store")
		return store.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewMongoDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	mongoStore := store.NewMongoStore(db.Database.Collection("admin_notifications"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Warnf("failed to create indexes: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Warnf("error disconnecting from MongoDB: %v", err)
		}
	}
	return mongoStore, cleanup, nil
}

func setupRouter(
	cfg *config.Config,
	service *notify.Service,
	registry *sessions.Registry,
	hub *handlers.Hub,
	jwtManager *auth.JWTManager,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		router.Use(limiter.RateLimit())
	}

	notificationHandler := handlers.NewNotificationHandler(service)
	eventHandler := handlers.NewEventHandler(service)
	sessionHandler := handlers.NewSessionHandler(registry)
	wsHandler := handlers.NewWebSocketHandler(hub, jwtManager, registry)

	router.GET("/ws", wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(serverStartTime).String(),
			"version":   appVersion,
			"stats": gin.H{
				"websocket_connections": hub.ConnectionsCount(),
				"active_admins":         len(registry.Active()),
			},
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager))
	v1.Use(middleware.AdminMiddleware())
	{
		v1.POST("/notifications", notificationHandler.CreateNotification)
		v1.GET("/notifications", notificationHandler.GetNotifications)
		v1.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		v1.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
		v1.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

		v1.POST("/events/flagged-message", eventHandler.FlaggedMessage)
		v1.POST("/events/user-report", eventHandler.UserReport)
		v1.POST("/events/system-alert", eventHandler.SystemAlert)

		v1.POST("/admin-sessions/:admin_id", sessionHandler.Register)
		v1.POST("/admin-sessions/:admin_id/heartbeat", sessionHandler.Heartbeat)
		v1.DELETE("/admin-sessions/:admin_id", sessionHandler.End)
		v1.GET("/admin-sessions/active", sessionHandler.GetActive)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

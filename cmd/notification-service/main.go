package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notificationHandler "syncspace-backend/internal/handler/http/notification"
	pushHandler "syncspace-backend/internal/handler/http/push"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/repository/cockroach"
	redisrepo "syncspace-backend/internal/repository/redis"
	notificationService "syncspace-backend/internal/service/notification"
	"syncspace-backend/pkg/database"
	"syncspace-backend/pkg/env"
	"syncspace-backend/pkg/jwt"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/metrics"
	"syncspace-backend/pkg/push"
	"syncspace-backend/pkg/scheduler"
)

func main() {
	logger.InitDefault()
	defer logger.Sync()

	jwtSecret := env.GetStringFromFile("JWT_SECRET", "")
	if len(jwtSecret) < 32 {
		logger.Fatal("JWT_SECRET must be set and at least 32 characters")
	}
	jwtManager := jwt.NewJWTManager(jwtSecret, 15*time.Minute, 30*24*time.Hour)

	ctx := context.Background()

	cockroachDB, err := database.NewCockroachDBFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to CockroachDB", zap.Error(err))
	}
	defer cockroachDB.Close()
	logger.Info("Connected to CockroachDB")

	redisDB, err := database.NewRedisDBFromEnv()
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()
	logger.Info("Connected to Redis")

	notificationRepo := cockroach.NewNotificationRepository(cockroachDB.Pool)
	pushTokenRepo := redisrepo.NewPushTokenRepository(redisDB)

	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	sched := scheduler.New()
	appMetrics := metrics.NewMetrics("notification-service")

	notificationSvc := notificationService.NewService(notificationRepo, pushSvc, sched, appMetrics)

	notificationHdlr := notificationHandler.NewHandler(notificationSvc)
	pushHdlr := pushHandler.NewHandler(pushSvc)

	// Daily retention sweep for old notifications
	retention := env.GetDuration("NOTIFICATION_RETENTION", 90*24*time.Hour)
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pruned, err := notificationSvc.PruneOlderThan(pruneCtx, retention)
				if err != nil {
					logger.Error("Notification prune failed", zap.Error(err))
					continue
				}
				logger.Info("Pruned old notifications", zap.Int64("count", pruned))
			case <-pruneCtx.Done():
				return
			}
		}
	}()

	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.HealthCheck("notification-service"))
	router.Use(middleware.PrometheusMiddleware(appMetrics))

	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	rateLimiter := middleware.NewRateLimiter(
		redisDB.Client,
		env.GetInt("RATE_LIMIT_REQUESTS", 300),
		env.GetDuration("RATE_LIMIT_WINDOW", time.Minute),
	)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager))
	v1.Use(rateLimiter.Middleware())
	{
		v1.GET("/notifications", notificationHdlr.List)
		v1.POST("/notifications/read-all", notificationHdlr.MarkAllRead)
		v1.GET("/notifications/preferences", notificationHdlr.GetPreferences)
		v1.PUT("/notifications/preferences", notificationHdlr.UpdatePreferences)
		v1.POST("/notifications/:id/read", notificationHdlr.MarkRead)
		v1.DELETE("/notifications/:id", notificationHdlr.Delete)

		v1.POST("/push/tokens", pushHdlr.RegisterToken)
		v1.GET("/push/tokens", pushHdlr.ListTokens)
		v1.DELETE("/push/tokens", pushHdlr.UnregisterAllTokens)
		v1.DELETE("/push/tokens/:id", pushHdlr.UnregisterToken)
	}

	port := env.GetString("PORT", "8084")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Info("Notification service starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	stopPrune()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	if err := sched.Shutdown(shutdownCtx); err != nil {
		logger.Error("Scheduler shutdown timed out", zap.Error(err))
	}
	logger.Info("Server exited")
}

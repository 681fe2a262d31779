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

	callHandler "syncspace-backend/internal/handler/http/call"
	presenceHandler "syncspace-backend/internal/handler/http/presence"
	"syncspace-backend/internal/media"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/repository/cassandra"
	"syncspace-backend/internal/repository/cockroach"
	redisrepo "syncspace-backend/internal/repository/redis"
	callService "syncspace-backend/internal/service/call"
	presenceService "syncspace-backend/internal/service/presence"
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

	cassandraDB, err := database.NewCassandraDBFromEnv()
	if err != nil {
		logger.Fatal("Failed to connect to Cassandra", zap.Error(err))
	}
	defer cassandraDB.Close()
	logger.Info("Connected to Cassandra")

	redisDB, err := database.NewRedisDBFromEnv()
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()
	logger.Info("Connected to Redis")

	// Repositories
	callRepo := cockroach.NewCallRepository(cockroachDB.Pool)
	conversationRepo := cockroach.NewConversationRepository(cockroachDB.Pool)
	groupRepo := cockroach.NewGroupRepository(cockroachDB.Pool)
	userRepo := cockroach.NewUserRepository(cockroachDB.Pool)
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)
	presenceRepo := redisrepo.NewPresenceRepository(redisDB)
	pushTokenRepo := redisrepo.NewPushTokenRepository(redisDB)

	// Media tokens: placeholder tokens keep calls working without LiveKit
	var tokens media.TokenProvider
	if lk := media.NewLiveKitProviderFromEnv(); lk != nil {
		tokens = lk
		logger.Info("LiveKit media provider configured")
	} else {
		tokens = media.NewPlaceholderProvider()
		logger.Warn("LiveKit not configured, minting placeholder media tokens")
	}

	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	sched := scheduler.New()
	appMetrics := metrics.NewMetrics("call-service")

	callSvc := callService.NewService(
		callRepo,
		conversationRepo,
		groupRepo,
		userRepo,
		presenceRepo,
		tokens,
		pushSvc,
		messageRepo,
		sched,
		appMetrics,
	)
	presenceSvc := presenceService.NewService(presenceRepo)

	callHdlr := callHandler.NewHandler(callSvc)
	presenceHdlr := presenceHandler.NewHandler(presenceSvc)

	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.HealthCheck("call-service"))
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
		v1.POST("/calls", callHdlr.StartCall)
		v1.GET("/calls/active", callHdlr.GetActiveCall)
		v1.GET("/calls/incoming", callHdlr.GetIncomingCalls)
		v1.GET("/calls/history", callHdlr.GetCallHistory)
		v1.GET("/calls/:id", callHdlr.GetCall)
		v1.GET("/calls/:id/participants", callHdlr.GetParticipants)
		v1.POST("/calls/:id/join", callHdlr.JoinCall)
		v1.POST("/calls/:id/leave", callHdlr.LeaveCall)
		v1.POST("/calls/:id/end", callHdlr.EndCall)

		v1.POST("/presence/heartbeat", presenceHdlr.Heartbeat)
		v1.PUT("/presence/status", presenceHdlr.SetStatus)
		v1.GET("/presence", presenceHdlr.GetPresences)
		v1.GET("/presence/:id", presenceHdlr.GetPresence)
		v1.DELETE("/presence", presenceHdlr.ClearPresence)
	}

	port := env.GetString("PORT", "8081")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Info("Call service starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
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

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

	chatHandler "syncspace-backend/internal/handler/http/chat"
	rosterHandler "syncspace-backend/internal/handler/http/roster"
	storageHandler "syncspace-backend/internal/handler/http/storage"
	wsHandler "syncspace-backend/internal/handler/ws"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/repository/cassandra"
	"syncspace-backend/internal/repository/cockroach"
	redisrepo "syncspace-backend/internal/repository/redis"
	chatService "syncspace-backend/internal/service/chat"
	rosterService "syncspace-backend/internal/service/roster"
	storageService "syncspace-backend/internal/service/storage"
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

	objectStore, err := storageService.NewMinioStore(ctx, storageService.MinioConfig{
		Endpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: env.GetString("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
		Bucket:    env.GetString("MINIO_BUCKET", "syncspace-files"),
		UseSSL:    env.GetBool("MINIO_USE_SSL", false),
	})
	if err != nil {
		logger.Fatal("Failed to connect to MinIO", zap.Error(err))
	}
	logger.Info("Connected to MinIO")

	// Repositories
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)
	conversationRepo := cockroach.NewConversationRepository(cockroachDB.Pool)
	groupRepo := cockroach.NewGroupRepository(cockroachDB.Pool)
	fileRepo := cockroach.NewFileRepository(cockroachDB.Pool)
	userRepo := cockroach.NewUserRepository(cockroachDB.Pool)
	pushTokenRepo := redisrepo.NewPushTokenRepository(redisDB)

	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	sched := scheduler.New()
	appMetrics := metrics.NewMetrics("chat-service")

	chatSvc := chatService.NewService(
		messageRepo,
		conversationRepo,
		groupRepo,
		fileRepo,
		userRepo,
		redisDB,
		pushSvc,
		sched,
		appMetrics,
	)
	rosterSvc := rosterService.NewService(conversationRepo, groupRepo, userRepo)
	storageSvc := storageService.NewService(objectStore, fileRepo)

	chatHdlr := chatHandler.NewHandler(chatSvc)
	rosterHdlr := rosterHandler.NewHandler(rosterSvc)
	storageHdlr := storageHandler.NewHandler(storageSvc)
	eventsHub := wsHandler.NewEventsHub(redisDB.Client, chatSvc)

	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.HealthCheck("chat-service"))
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
		v1.POST("/messages", chatHdlr.SendMessage)
		v1.GET("/messages", chatHdlr.GetMessages)
		v1.GET("/messages/recent", chatHdlr.GetRecentMessages)
		v1.DELETE("/messages/:id", chatHdlr.DeleteMessage)

		v1.POST("/conversations", rosterHdlr.StartConversation)
		v1.GET("/conversations", rosterHdlr.ListConversations)
		v1.GET("/conversations/:id", rosterHdlr.GetConversation)
		v1.GET("/conversations/:id/participants", rosterHdlr.GetConversationParticipants)

		v1.POST("/groups", rosterHdlr.CreateGroup)
		v1.GET("/groups", rosterHdlr.ListGroups)
		v1.GET("/groups/:id", rosterHdlr.GetGroup)
		v1.PATCH("/groups/:id", rosterHdlr.UpdateGroup)
		v1.DELETE("/groups/:id", rosterHdlr.DeleteGroup)
		v1.GET("/groups/:id/members", rosterHdlr.GetGroupMembers)
		v1.POST("/groups/:id/members", rosterHdlr.AddGroupMember)
		v1.DELETE("/groups/:id/members/:user_id", rosterHdlr.RemoveGroupMember)
		v1.POST("/groups/:id/leave", rosterHdlr.LeaveGroup)

		v1.POST("/files", storageHdlr.RequestUpload)
		v1.GET("/files", storageHdlr.ListFiles)
		v1.GET("/files/:id", storageHdlr.GetFile)
		v1.POST("/files/:id/complete", storageHdlr.CompleteUpload)
		v1.GET("/files/:id/download", storageHdlr.GetDownloadURL)
		v1.DELETE("/files/:id", storageHdlr.DeleteFile)

		v1.GET("/ws", eventsHub.ServeWS)
	}

	port := env.GetString("PORT", "8082")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Info("Chat service starting", zap.String("port", port))
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

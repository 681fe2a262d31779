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

	calendarHandler "syncspace-backend/internal/handler/http/calendar"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/repository/cockroach"
	redisrepo "syncspace-backend/internal/repository/redis"
	meetingService "syncspace-backend/internal/service/meeting"
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

	// Repositories
	meetingRepo := cockroach.NewMeetingRepository(cockroachDB.Pool)
	eventRepo := cockroach.NewEventRepository(cockroachDB.Pool)
	userRepo := cockroach.NewUserRepository(cockroachDB.Pool)
	pushTokenRepo := redisrepo.NewPushTokenRepository(redisDB)

	pushProvider, err := push.NewProvider()
	if err != nil {
		logger.Fatal("Failed to initialize push provider", zap.Error(err))
	}
	pushSvc := push.NewService(pushProvider, pushTokenRepo)

	sched := scheduler.New()
	appMetrics := metrics.NewMetrics("calendar-service")

	meetingSvc := meetingService.NewService(
		meetingRepo,
		eventRepo,
		userRepo,
		pushSvc,
		sched,
		appMetrics,
	)

	calendarHdlr := calendarHandler.NewHandler(meetingSvc)

	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.HealthCheck("calendar-service"))
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
		v1.POST("/meetings", calendarHdlr.RequestMeeting)
		v1.GET("/meetings/incoming", calendarHdlr.ListIncomingMeetings)
		v1.GET("/meetings/outgoing", calendarHdlr.ListOutgoingMeetings)
		v1.GET("/meetings/:id", calendarHdlr.GetMeeting)
		v1.POST("/meetings/:id/respond", calendarHdlr.RespondToMeeting)
		v1.DELETE("/meetings/:id", calendarHdlr.CancelMeeting)
		v1.GET("/meetings/:id/update", calendarHdlr.GetPendingUpdate)

		v1.GET("/meeting-updates", calendarHdlr.ListPendingUpdates)
		v1.POST("/meeting-updates/:id/respond", calendarHdlr.RespondToUpdate)

		v1.POST("/events", calendarHdlr.CreateEvent)
		v1.GET("/events", calendarHdlr.ListEvents)
		v1.GET("/events/:id", calendarHdlr.GetEvent)
		v1.PATCH("/events/:id", calendarHdlr.UpdateEvent)
		v1.DELETE("/events/:id", calendarHdlr.DeleteEvent)

		v1.GET("/users/:id/events/public", calendarHdlr.ListPublicEvents)
	}

	port := env.GetString("PORT", "8083")
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Info("Calendar service starting", zap.String("port", port))
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

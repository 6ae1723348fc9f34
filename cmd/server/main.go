// Package main runs the creator portal HTTP server with WebSocket and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/creatorportal/backend/config"
	"github.com/creatorportal/backend/internal/agencies"
	"github.com/creatorportal/backend/internal/auth"
	"github.com/creatorportal/backend/internal/invites"
	"github.com/creatorportal/backend/internal/memberships"
	"github.com/creatorportal/backend/internal/middleware"
	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/internal/notifications"
	"github.com/creatorportal/backend/internal/realtime"
	"github.com/creatorportal/backend/internal/submissions"
	"github.com/creatorportal/backend/pkg/database"
	"github.com/creatorportal/backend/pkg/queue"
	"github.com/creatorportal/backend/pkg/redis"
	"github.com/creatorportal/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Agencies and public directory
	agencyRepo := agencies.NewRepository(pool)
	directory := agencies.NewDirectory(agencyRepo, rdb.Client,
		time.Duration(cfg.Directory.CacheTTLSeconds)*time.Second, logger)
	agencyHandler := agencies.NewHandler(agencyRepo, directory)

	// Memberships
	membershipRepo := memberships.NewRepository(pool)

	// Invites
	inviteRepo := invites.NewRepository(pool)
	inviteService := invites.NewService(inviteRepo, cfg.Invite.LinkBaseURL, cfg.Invite.DefaultExpiryDays, logger)
	inviteHandler := invites.NewHandler(inviteService, membershipRepo, agencyRepo, jobQueue, logger)

	membershipService := memberships.NewService(membershipRepo, agencyRepo, inviteService, logger)
	membershipHandler := memberships.NewHandler(membershipService, membershipRepo)

	// Submissions and review
	submissionRepo := submissions.NewRepository(pool)
	submissionService := submissions.NewService(submissionRepo, authRepo, logger)
	submissionHandler := submissions.NewHandler(submissionService, membershipRepo, hub, jobQueue, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (platform admin)
		api.GET("/users", middleware.RequireRole(string(models.RoleAdmin)), authHandler.List)

		// Agencies
		api.GET("/agencies/directory", agencyHandler.ListPublic)
		api.POST("/agencies", agencyHandler.Create)
		api.GET("/agencies/:id", agencyHandler.Get)
		api.POST("/agencies/:id/join", membershipHandler.JoinPublic)
		api.GET("/agencies/:id/members", membershipHandler.List)
		api.POST("/agencies/:id/members/:userId/approve", membershipHandler.Approve)
		api.POST("/agencies/:id/members/:userId/reject", membershipHandler.Reject)

		// Invites
		api.GET("/agencies/:id/invites", inviteHandler.List)
		api.POST("/agencies/:id/invites", inviteHandler.Create)
		api.DELETE("/invites/:id", inviteHandler.Revoke)
		api.POST("/invites/redeem", membershipHandler.Redeem)

		// Membership (caller's own)
		api.GET("/membership", membershipHandler.GetMine)

		// Submissions
		api.POST("/submissions", submissionHandler.Submit)
		api.GET("/submissions", submissionHandler.List)
		api.PATCH("/submissions/:id/review", middleware.RequireRole(string(models.RoleAdmin)), submissionHandler.Review)
		api.GET("/submissions/stats", middleware.RequireRole(string(models.RoleAdmin)), submissionHandler.Stats)
	}

	// WebSocket review feed (token in query; no Authorization header required).
	// Any member of the agency may watch its room, not just owner/admin.
	wsAccess := func(ctx context.Context, agencyID, userID uuid.UUID) (bool, error) {
		m, err := membershipRepo.GetByUser(ctx, userID)
		if err != nil {
			return false, err
		}
		if m != nil && m.CorporationID == agencyID {
			return true, nil
		}
		return membershipRepo.HasAgencyAccess(ctx, agencyID, userID)
	}
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate, wsAccess))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process notification worker; cmd/worker runs the same loop standalone.
	notifRepo := notifications.NewRepository(pool)
	processor := notifications.NewProcessor(jobQueue, authRepo, notifRepo, logger)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go processor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

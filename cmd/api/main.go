package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rec-ctp-api/api/swagger"
	"github.com/noah-isme/rec-ctp-api/internal/handler"
	"github.com/noah-isme/rec-ctp-api/internal/middleware"
	"github.com/noah-isme/rec-ctp-api/internal/models"
	"github.com/noah-isme/rec-ctp-api/internal/repository"
	"github.com/noah-isme/rec-ctp-api/internal/service"
	"github.com/noah-isme/rec-ctp-api/pkg/cache"
	"github.com/noah-isme/rec-ctp-api/pkg/config"
	"github.com/noah-isme/rec-ctp-api/pkg/database"
	"github.com/noah-isme/rec-ctp-api/pkg/export"
	"github.com/noah-isme/rec-ctp-api/pkg/logger"
	"github.com/noah-isme/rec-ctp-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/rec-ctp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rec-ctp-api/pkg/middleware/requestid"
	"github.com/noah-isme/rec-ctp-api/pkg/storage"
)

// @title REC CTP API
// @version 1.0.0
// @description Credit transfer and on-duty request portal
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close()

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	uploadSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	reportSigner := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New(validator.WithRequiredStructEnabled())
	notifier := mailer.New(cfg.SMTP, logr)
	exporter := export.NewPDFExporter()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	odRepo := repository.NewODRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	eventRepo := repository.NewEventRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	var verifier service.IdentityVerifier
	if cfg.Auth.GoogleClientID != "" {
		verifier = service.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	}

	authSvc := service.NewAuthService(userRepo, verifier, notifier, validate, logr, service.AuthConfig{
		TokenSecret:       cfg.JWT.Secret,
		TokenExpiry:       cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		InstitutionDomain: cfg.Auth.InstitutionDomain,
		ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
		ResetBaseURL:      cfg.SMTP.BaseURL,
	})
	applicationSvc := service.NewApplicationService(applicationRepo, userRepo, exporter, reportStore, reportSigner, metricsSvc, validate, logr)
	odSvc := service.NewODService(odRepo, userRepo, validate, logr)
	achievementSvc := service.NewAchievementService(achievementRepo, userRepo, cacheRepo, metricsSvc, cfg.Cache.HighlightsTTL, validate, logr)
	eventSvc := service.NewEventService(eventRepo, userRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, applicationRepo, odRepo, cacheRepo, metricsSvc, cfg.Cache.StatsTTL, cfg.Auth.SystemAdminEmail, validate, logr)
	uploadSvc := service.NewUploadService(uploadRepo, userRepo, uploadStore, reportStore, uploadSigner, metricsSvc, service.UploadConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	odHandler := handler.NewODHandler(odSvc)
	achievementHandler := handler.NewAchievementHandler(achievementSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	adminHandler := handler.NewAdminHandler(userSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:         authHandler,
		applications: applicationHandler,
		odRequests:   odHandler,
		achievements: achievementHandler,
		events:       eventHandler,
		admin:        adminHandler,
		uploads:      uploadHandler,
		authSvc:      authSvc,
	})

	go cleanupReports(context.Background(), reportStore, cfg.Reports.RetainFor, logr)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	waitForShutdown(srv, logr)
}

type routeDeps struct {
	auth         *handler.AuthHandler
	applications *handler.ApplicationHandler
	odRequests   *handler.ODHandler
	achievements *handler.AchievementHandler
	events       *handler.EventHandler
	admin        *handler.AdminHandler
	uploads      *handler.UploadHandler
	authSvc      *service.AuthService
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.auth.Register)
		auth.POST("/login", deps.auth.Login)
		auth.POST("/google/login", deps.auth.GoogleLogin)
		auth.POST("/google/register", deps.auth.GoogleRegister)
		auth.POST("/forgot-password", deps.auth.ForgotPassword)
		auth.POST("/reset-password", deps.auth.ResetPassword)
	}

	// Public showcase of verified achievements.
	api.GET("/achievements/highlights", deps.achievements.Highlights)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.authSvc))
	{
		authed.GET("/auth/me", deps.auth.Me)
		authed.POST("/auth/change-password", deps.auth.ChangePassword)

		authed.POST("/uploads", deps.uploads.Upload)
		authed.GET("/files/download", deps.uploads.Download)

		applications := authed.Group("/applications")
		{
			applications.POST("", middleware.RequireRoles(models.RoleStudent), deps.applications.Create)
			applications.GET("", deps.applications.List)
			applications.GET("/:id", deps.applications.Get)
			applications.PATCH("/:id/status", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.applications.Review)
			applications.PUT("/:id/resubmit", middleware.RequireRoles(models.RoleStudent), deps.applications.Resubmit)
			applications.DELETE("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.applications.Delete)
			applications.GET("/:id/pdf", deps.applications.Report)
		}

		odRequests := authed.Group("/od-requests")
		{
			odRequests.POST("", middleware.RequireRoles(models.RoleStudent), deps.odRequests.Create)
			odRequests.GET("", deps.odRequests.List)
			odRequests.GET("/my", deps.odRequests.Mine)
			odRequests.GET("/:id", deps.odRequests.Get)
			odRequests.PATCH("/:id/status", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.odRequests.Review)
			odRequests.DELETE("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.odRequests.Delete)
		}

		achievements := authed.Group("/achievements")
		{
			achievements.POST("", middleware.RequireRoles(models.RoleStudent), deps.achievements.Create)
			achievements.GET("", deps.achievements.List)
			achievements.GET("/my", deps.achievements.Mine)
			achievements.GET("/:id", deps.achievements.Get)
			achievements.PATCH("/:id/status", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.achievements.Verify)
			achievements.DELETE("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.achievements.Delete)
		}

		events := authed.Group("/events")
		{
			events.POST("", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.events.Create)
			events.GET("", deps.events.List)
			events.GET("/:id", deps.events.Get)
			events.POST("/:id/register", middleware.RequireRoles(models.RoleStudent), deps.events.Register)
			events.DELETE("/:id", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), deps.events.Delete)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", deps.admin.ListUsers)
			admin.GET("/users/export", deps.admin.ExportUsers)
			admin.POST("/users", deps.admin.CreateUser)
			admin.GET("/users/:id", deps.admin.GetUser)
			admin.PUT("/users/:id", deps.admin.UpdateUser)
			admin.PATCH("/users/:id/approve", deps.admin.ApproveUser)
			admin.DELETE("/users/:id", deps.admin.DeleteUser)
			admin.GET("/stats", deps.admin.Stats)
		}
	}
}

// cleanupReports drops generated approval letters past the retention
// window. Letters are regenerated on demand so deletion is safe.
func cleanupReports(ctx context.Context, store *storage.LocalStorage, retainFor time.Duration, logr *zap.Logger) {
	if retainFor <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(retainFor)
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired reports removed", "count", len(removed))
			}
		}
	}
}

func waitForShutdown(srv *http.Server, logr *zap.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		return
	}

	logr.Sugar().Infow("server stopped")
}

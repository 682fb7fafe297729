package main

import (
	"context"
	"errors"
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

	_ "github.com/smartadmission/admissions-api/api/swagger"
	"github.com/smartadmission/admissions-api/internal/handler"
	"github.com/smartadmission/admissions-api/internal/middleware"
	"github.com/smartadmission/admissions-api/internal/repository"
	"github.com/smartadmission/admissions-api/internal/service"
	"github.com/smartadmission/admissions-api/pkg/appid"
	"github.com/smartadmission/admissions-api/pkg/cache"
	"github.com/smartadmission/admissions-api/pkg/config"
	"github.com/smartadmission/admissions-api/pkg/database"
	"github.com/smartadmission/admissions-api/pkg/jobs"
	"github.com/smartadmission/admissions-api/pkg/logger"
	corsmiddleware "github.com/smartadmission/admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smartadmission/admissions-api/pkg/middleware/requestid"
	"github.com/smartadmission/admissions-api/pkg/storage"
)

// @title Smart Admission API
// @version 1.0.0
// @description College admission application lifecycle service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	appRepo := repository.NewApplicationRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	appSvc := service.NewApplicationService(appRepo, appid.New(cfg.Admissions.IDPrefix), cacheSvc, metrics, validate, logr, service.ApplicationServiceConfig{
		StatementMinLength: cfg.Admissions.StatementMinLength,
		IDMaxRetries:       cfg.Admissions.IDMaxRetries,
		Policy: service.TransitionPolicy{
			Strict:       cfg.Admissions.StrictTransitions,
			LockTerminal: cfg.Admissions.LockTerminal,
		},
	})
	dashboardSvc := service.NewDashboardService(appRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(appRepo, logr)
	chatbotSvc := service.NewChatbotService(logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		artifacts, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

		reportSvc = service.NewReportService(reportRepo, nil, exportSvc, artifacts, signer, metrics, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportQueue = jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc.SetQueue(reportQueue)
		reportQueue.Start(ctx)
		go reportSvc.RunCleanupLoop(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	appHandler := handler.NewApplicationHandler(appSvc)
	adminHandler := handler.NewAdminHandler(appSvc, dashboardSvc, exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	chatHandler := handler.NewChatbotHandler(chatbotSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/applications", appHandler.Submit)
		api.GET("/applications/track", appHandler.Track)
		api.POST("/auth/login", authHandler.Login)
		if cfg.Chatbot.Enabled {
			api.POST("/chat", chatHandler.Chat)
			api.GET("/chat/topics", chatHandler.Topics)
		}

		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.GET("/applications", adminHandler.List)
			admin.GET("/applications/:id", adminHandler.Get)
			admin.PATCH("/applications/:id/status", adminHandler.UpdateStatus)
			admin.DELETE("/applications/:id", adminHandler.Delete)
			admin.GET("/applications/:id/pdf", adminHandler.PDF)
			admin.GET("/dashboard", adminHandler.Dashboard)
		}

		if reportSvc != nil {
			reportHandler := handler.NewReportHandler(reportSvc)
			api.GET("/reports/download", reportHandler.Download)
			reports := api.Group("/admin/reports", middleware.JWT(authSvc))
			{
				reports.POST("", reportHandler.Create)
				reports.GET("", reportHandler.List)
				reports.GET("/:id", reportHandler.Get)
			}
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}

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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nexskill/institute-api/api/swagger"
	"github.com/nexskill/institute-api/internal/handler"
	"github.com/nexskill/institute-api/internal/middleware"
	"github.com/nexskill/institute-api/internal/repository"
	"github.com/nexskill/institute-api/internal/service"
	"github.com/nexskill/institute-api/pkg/cache"
	"github.com/nexskill/institute-api/pkg/config"
	"github.com/nexskill/institute-api/pkg/database"
	"github.com/nexskill/institute-api/pkg/jobs"
	"github.com/nexskill/institute-api/pkg/logger"
	corsmiddleware "github.com/nexskill/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nexskill/institute-api/pkg/middleware/requestid"
)

// @title Institute API
// @version 1.0.0
// @description Multi-branch institute CRM backend
// @BasePath /api
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	operationsRepo := repository.NewOperationsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	notificationSvc := service.NewNotificationService(notificationRepo, metricsSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc.StartQueue(ctx)
	defer notificationSvc.StopQueue()

	authSvc := service.NewAuthService(userRepo, catalogRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	leadSvc := service.NewLeadService(leadRepo, admissionRepo, userRepo, notificationSvc, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, userRepo, studentRepo, placementRepo, userRepo, notificationSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, userRepo, studentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, batchRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, batchRepo, validate, logr)
	portfolioSvc := service.NewPortfolioService(portfolioRepo, batchRepo, validate, logr)
	placementSvc := service.NewPlacementService(placementRepo, studentRepo, notificationSvc, validate, logr)
	operationsSvc := service.NewOperationsService(operationsRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Leads:       leadRepo,
		Admissions:  admissionRepo,
		Students:    studentRepo,
		Batches:     batchRepo,
		Placements:  placementRepo,
		Portfolios:  portfolioRepo,
		Assessments: assessmentRepo,
		Attendance:  attendanceRepo,
		Cache:       cacheSvc,
		Logger:      logr,
		CacheTTL:    cfg.Dashboard.CacheTTL,
	})
	exportSvc := service.NewExportService(admissionRepo, attendanceRepo, placementRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready(map[string]func(context.Context) error{
		"postgres": db.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, handler.Deps{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Leads:         handler.NewLeadHandler(leadSvc),
		Admissions:    handler.NewAdmissionHandler(admissionSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Batches:       handler.NewBatchHandler(batchSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Assessments:   handler.NewAssessmentHandler(assessmentSvc),
		Portfolio:     handler.NewPortfolioHandler(portfolioSvc, studentSvc),
		Placements:    handler.NewPlacementHandler(placementSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Operations:    handler.NewOperationsHandler(operationsSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Exports:       handler.NewExportHandler(exportSvc),
		Metrics:       metricsHandler,
		AuthService:   authSvc,
		AuditRepo:     userRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

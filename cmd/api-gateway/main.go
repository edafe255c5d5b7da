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

	_ "github.com/noah-isme/hostel-adp-api/api/swagger"
	"github.com/noah-isme/hostel-adp-api/internal/handler"
	"github.com/noah-isme/hostel-adp-api/internal/middleware"
	"github.com/noah-isme/hostel-adp-api/internal/models"
	"github.com/noah-isme/hostel-adp-api/internal/repository"
	"github.com/noah-isme/hostel-adp-api/internal/service"
	"github.com/noah-isme/hostel-adp-api/pkg/cache"
	"github.com/noah-isme/hostel-adp-api/pkg/config"
	"github.com/noah-isme/hostel-adp-api/pkg/database"
	"github.com/noah-isme/hostel-adp-api/pkg/jobs"
	"github.com/noah-isme/hostel-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hostel-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hostel-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/hostel-adp-api/pkg/storage"
)

// @title Hostel ADP API
// @version 0.1.0
// @description Hostel administration backend: students, invoices, dues, dashboards, reports
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	hostelRepo := repository.NewHostelRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hostel-adp-api",
		Audience:           []string{"hostel-adp"},
		SingleSession:      true,
	})
	hostelSvc := service.NewHostelService(hostelRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, hostelRepo, userRepo, validate, logr)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, studentRepo, userRepo, cacheSvc, validate, logr)
	dueSvc := service.NewDueService(hostelRepo, studentRepo, invoiceRepo, cfg.Billing.GraceDays, logr)
	dashboardSvc := service.NewDashboardService(dueSvc, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	hostelHandler := handler.NewHostelHandler(hostelSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc, studentSvc)
	dueHandler := handler.NewDueHandler(dueSvc, studentSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/metrics/summary", middleware.RequireRoles(models.RoleMasterAdmin), metricsHandler.Summary)

	hostels := authed.Group("/hostels")
	hostels.GET("", middleware.RequireRoles(models.RoleMasterAdmin), hostelHandler.List)
	hostels.GET("/:id", middleware.ScopeHostelParam("id"), hostelHandler.Get)
	hostels.GET("/:id/defaulters", middleware.ScopeHostelParam("id"), dueHandler.Defaulters)
	hostels.POST("", middleware.RequireRoles(models.RoleMasterAdmin), middleware.Audit(userRepo, models.AuditActionHostelWrite, "hostels"), hostelHandler.Create)
	hostels.PUT("/:id", middleware.RequireRoles(models.RoleMasterAdmin), middleware.Audit(userRepo, models.AuditActionHostelWrite, "hostels"), hostelHandler.Update)
	hostels.DELETE("/:id", middleware.RequireRoles(models.RoleMasterAdmin), middleware.Audit(userRepo, models.AuditActionHostelWrite, "hostels"), hostelHandler.Deactivate)

	students := authed.Group("/students")
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.GET("/:id/due", dueHandler.StudentDue)
	students.POST("", studentHandler.Create)
	students.PUT("/:id", studentHandler.Update)
	students.POST("/:id/leave", studentHandler.MarkLeft)

	invoices := authed.Group("/invoices")
	invoices.GET("", invoiceHandler.List)
	invoices.GET("/:id", invoiceHandler.Get)
	invoices.POST("", invoiceHandler.Create)
	invoices.PUT("/:id", invoiceHandler.Update)
	invoices.DELETE("/:id", invoiceHandler.Delete)

	if cfg.Dashboard.Enabled {
		dashboard := authed.Group("/dashboard")
		dashboard.GET("/portfolio", middleware.RequireRoles(models.RoleMasterAdmin), dashboardHandler.Portfolio)
		dashboard.GET("/hostels/:id", middleware.ScopeHostelParam("id"), dashboardHandler.Hostel)
	}

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(dueSvc, invoiceRepo, hostelRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix + "/reports",
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)

		reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports", reportHandler.Create)
		authed.GET("/reports/:id", reportHandler.Status)
		// downloads authenticate via the signed token itself
		api.GET("/reports/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}

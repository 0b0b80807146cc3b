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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/wrenchworks/dispatch-api/api/swagger"
	"github.com/wrenchworks/dispatch-api/internal/handler"
	"github.com/wrenchworks/dispatch-api/internal/middleware"
	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/repository"
	"github.com/wrenchworks/dispatch-api/internal/service"
	"github.com/wrenchworks/dispatch-api/internal/upstream"
	"github.com/wrenchworks/dispatch-api/pkg/cache"
	"github.com/wrenchworks/dispatch-api/pkg/config"
	"github.com/wrenchworks/dispatch-api/pkg/database"
	"github.com/wrenchworks/dispatch-api/pkg/jobs"
	"github.com/wrenchworks/dispatch-api/pkg/logger"
	corsmiddleware "github.com/wrenchworks/dispatch-api/pkg/middleware/cors"
	reqidmiddleware "github.com/wrenchworks/dispatch-api/pkg/middleware/requestid"
)

// @title Workshop Dispatch API
// @version 1.0.0
// @description Technician availability and assignment core for the workshop platform
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	policy := service.WindowPolicy{
		ServiceDefaultDays:   cfg.Scheduling.ServiceDefaultDays,
		RoadsideDefaultHours: cfg.Scheduling.RoadsideDefaultHours,
	}

	technicianRepo := repository.NewTechnicianRepository(db)
	jobRepo := repository.NewJobRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	upstreamClient := upstream.New(cfg.Upstream, logr)

	authSvc := service.NewAuthService(cfg.JWT)
	technicianSvc := service.NewTechnicianService(technicianRepo, logr)
	availabilitySvc := service.NewAvailabilityService(technicianRepo, jobRepo, cacheSvc, metrics, policy, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, upstreamClient, cacheSvc, metrics, policy, validate, logr)
	jobSvc := service.NewJobService(jobRepo, policy, logr)
	syncSvc := service.NewSyncService(upstreamClient, technicianRepo, jobRepo, cacheSvc, metrics, cfg.Sync, logr)

	technicianHandler := handler.NewTechnicianHandler(technicianSvc, availabilitySvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	jobHandler := handler.NewJobHandler(jobSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/technicians", technicianHandler.List)
		api.GET("/technicians/available", technicianHandler.ListAvailable)
		api.GET("/technicians/available/roadassist/:id", technicianHandler.ListAvailableRoadAssist)
		api.GET("/technicians/:id", technicianHandler.Get)

		api.POST("/appointments/assign", middleware.JWT(authSvc), assignmentHandler.AssignAppointment)
		api.PUT("/roadassists/:id/assign-technician", middleware.JWT(authSvc), assignmentHandler.AssignRoadAssist)

		api.GET("/jobs", jobHandler.List)
		api.GET("/jobs/:id", jobHandler.Get)

		api.POST("/sync/:source", middleware.JWT(authSvc), syncHandler.Trigger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sync.Enabled {
		startSyncLoop(ctx, cfg.Sync, syncSvc, logr)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// startSyncLoop schedules periodic reconciliation runs for every upstream
// source through the background queue.
func startSyncLoop(ctx context.Context, cfg config.SyncConfig, syncSvc *service.SyncService, logr *zap.Logger) {
	queue := jobs.NewQueue("sync", func(ctx context.Context, task jobs.Task) error {
		_, err := syncSvc.Reconcile(ctx, models.SyncSource(task.Source))
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)

	sources := []models.SyncSource{
		models.SyncSourceTechnicians,
		models.SyncSourceAppointments,
		models.SyncSourceRoadAssists,
	}

	enqueue := func() {
		for _, source := range sources {
			task := jobs.Task{
				ID:       uuid.NewString(),
				Source:   string(source),
				Enqueued: time.Now(),
			}
			if err := queue.Enqueue(task); err != nil {
				logr.Sugar().Warnw("failed to enqueue sync task", "source", source, "error", err)
			}
		}
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		defer queue.Stop()

		enqueue()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				enqueue()
			}
		}
	}()
}

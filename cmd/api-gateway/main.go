package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/content-review-api/api/swagger"
	"github.com/noah-isme/content-review-api/internal/handler"
	internalmiddleware "github.com/noah-isme/content-review-api/internal/middleware"
	"github.com/noah-isme/content-review-api/internal/models"
	"github.com/noah-isme/content-review-api/internal/repository"
	"github.com/noah-isme/content-review-api/internal/service"
	"github.com/noah-isme/content-review-api/pkg/cache"
	"github.com/noah-isme/content-review-api/pkg/config"
	"github.com/noah-isme/content-review-api/pkg/database"
	"github.com/noah-isme/content-review-api/pkg/jobs"
	"github.com/noah-isme/content-review-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/content-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/content-review-api/pkg/middleware/requestid"
)

// @title Content Review API
// @version 0.1.0
// @description Versioned content review with positional annotations
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	feedOpts := []service.PublishFeedOption{service.WithFeedMetrics(metrics)}
	if cfg.PublishFeed.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, publish feed is not cached", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, "review")
			defer cacheRepo.Close() //nolint:errcheck
			feedOpts = append(feedOpts, service.WithFeedCache(cacheRepo, cfg.PublishFeed.CacheTTL))
		}
	}

	submissionRepo := repository.NewSubmissionRepository(db, service.NormalizeMediaJSON)
	commentRepo := repository.NewCommentRepository(db)
	publishRepo := repository.NewPublishEventRepository(db)

	feedSvc := service.NewPublishFeedService(publishRepo, logr, feedOpts...)
	submissionSvc := service.NewSubmissionService(submissionRepo, feedSvc, validate, logr)
	sessionSvc := service.NewSessionService(service.SessionConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	storeOpts := []service.AnnotationStoreOption{
		service.WithFailurePolicy(service.FailurePolicy(cfg.Review.FailurePolicy)),
	}
	if cfg.Review.RetryEnabled && cfg.Review.FailurePolicy == config.FailurePolicyLenient {
		redelivery := service.NewMutationRedelivery(commentRepo, metrics, jobs.QueueConfig{
			Workers:    cfg.Review.RetryWorkers,
			MaxRetries: cfg.Review.RetryAttempts,
			RetryDelay: cfg.Review.RetryDelay,
			Logger:     logr.Named("redelivery"),
		})
		redelivery.Start(ctx)
		defer redelivery.Stop()
		storeOpts = append(storeOpts, service.WithMutationRetrier(redelivery))
	}

	registry := service.NewWorkspaceRegistry(func(session models.Session) *service.ReviewWorkspace {
		return service.NewReviewWorkspace(session, submissionSvc, commentRepo, logr.With(zap.String("user_id", session.UserID)),
			service.WithWorkspaceMetrics(metrics),
			service.WithWorkspaceValidator(validate),
			service.WithFlyoutThreshold(cfg.Review.FlyoutThreshold),
			service.WithAnnotationOptions(storeOpts...),
		)
	}, cfg.Review.WorkspaceTTL, logr)
	go sweepWorkspaces(ctx, registry, cfg.Review.WorkspaceTTL)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(submissionSvc, logr, nil, nil)
	}

	reviewHandler := handler.NewReviewHandler(registry)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, exportOrNil(exportSvc))
	metricsHandler := handler.NewMetricsHandler(metrics, registry)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, []string{"/health", "/metrics"}, sessionFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.Session(sessionSvc))

	api.GET("/submissions", submissionHandler.List)
	api.GET("/submissions/:assignmentId/export", submissionHandler.Export)

	review := api.Group("/review")
	review.GET("", reviewHandler.View)
	review.POST("/refresh", reviewHandler.Refresh)
	review.POST("/select", reviewHandler.Select)
	review.POST("/click", reviewHandler.Click)
	review.PATCH("/status", internalmiddleware.RequireRoles(models.RoleCustomer, models.RoleAdmin), reviewHandler.UpdateStatus)

	comments := review.Group("/comments/:id")
	comments.POST("/edit", reviewHandler.Edit)
	comments.POST("/submit", reviewHandler.Submit)
	comments.POST("/cancel", reviewHandler.Cancel)
	comments.POST("/done", reviewHandler.MarkDone)
	comments.POST("/reposition", reviewHandler.StartReposition)
	comments.DELETE("", reviewHandler.Delete)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "failure_policy", cfg.Review.FailurePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// exportOrNil keeps a disabled export service a true nil interface for the handler.
func exportOrNil(svc *service.ExportService) interface {
	ExportAnnotations(ctx context.Context, assignmentID string, format service.ExportFormat) (*service.ExportResult, error)
} {
	if svc == nil {
		return nil
	}
	return svc
}

func sweepWorkspaces(ctx context.Context, registry *service.WorkspaceRegistry, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep()
		}
	}
}

func sessionFields(c *gin.Context) []zap.Field {
	session, ok := internalmiddleware.SessionFromContext(c)
	if !ok {
		return nil
	}
	return []zap.Field{zap.String("user_id", session.UserID), zap.String("role", string(session.Role))}
}

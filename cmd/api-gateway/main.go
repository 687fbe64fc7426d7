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

	_ "github.com/noah-isme/faxlab-academy-api/api/swagger"
	"github.com/noah-isme/faxlab-academy-api/internal/handler"
	internalmiddleware "github.com/noah-isme/faxlab-academy-api/internal/middleware"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	"github.com/noah-isme/faxlab-academy-api/internal/service"
	"github.com/noah-isme/faxlab-academy-api/migrations"
	"github.com/noah-isme/faxlab-academy-api/pkg/cache"
	"github.com/noah-isme/faxlab-academy-api/pkg/config"
	"github.com/noah-isme/faxlab-academy-api/pkg/database"
	"github.com/noah-isme/faxlab-academy-api/pkg/export"
	"github.com/noah-isme/faxlab-academy-api/pkg/jobs"
	"github.com/noah-isme/faxlab-academy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/faxlab-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/faxlab-academy-api/pkg/middleware/requestid"
	"github.com/noah-isme/faxlab-academy-api/pkg/storage"
)

// @title FaxLab Academy API
// @version 1.0.0
// @description Course catalog, enrollment, simulated checkout and learner dashboard
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			logr.Sugar().Fatalw("apply migrations", "error", err)
		}
		logr.Info("database schema up to date")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	readiness := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		readiness["redis"] = cache.Pinger{Client: redisClient}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// repositories
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	progressRepo := repository.NewVideoProgressRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var checkoutStore interface {
		Save(ctx context.Context, session *models.CheckoutSession) error
		SaveIf(ctx context.Context, session *models.CheckoutSession, expected ...models.CheckoutState) error
		Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	}
	if redisClient != nil {
		checkoutStore = repository.NewRedisCheckoutSessionRepository(redisClient, cfg.Checkout.SessionTTL)
	} else {
		logr.Warn("checkout sessions kept in memory; they do not survive restarts")
		checkoutStore = repository.NewMemoryCheckoutSessionRepository(cfg.Checkout.SessionTTL)
	}

	files, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("certificate storage unavailable", "error", err)
	}

	// services
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, redisClient != nil)
	dashboardCache := cacheSvc
	if !cfg.Dashboard.CacheEnabled {
		dashboardCache = nil
	}
	authSvc := service.NewAuthService(userRepo, profileRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(courseRepo, enrollmentRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments:  enrollmentRepo,
		Certificates: certificateRepo,
		Progress:     progressRepo,
		Cache:        dashboardCache,
		Logger:       logr,
		Config:       service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	enrollmentSvc := service.NewEnrollmentService(courseRepo, enrollmentRepo, dashboardSvc, metrics, logr)
	pdfExporter := export.NewPDFExporter("FaxLab Academy")
	profileSvc := service.NewProfileService(profileRepo, enrollmentRepo, userRepo,
		[]service.TableRenderer{export.NewCSVExporter(), pdfExporter}, validate, logr)
	certificateSvc := service.NewCertificateService(service.CertificateServiceParams{
		Certificates: certificateRepo,
		Profiles:     profileRepo,
		Renderer:     pdfExporter,
		Files:        files,
		Signer:       storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL),
		Metrics:      metrics,
		Logger:       logr,
		Config: service.CertificateServiceConfig{
			APIPrefix: cfg.APIPrefix,
			FileTTL:   cfg.Certificates.FileTTL,
		},
	})

	checkoutCfg := service.CheckoutConfig{
		Delay:          cfg.Checkout.Delay,
		RecordPayments: cfg.Checkout.RecordPayments,
		Currency:       cfg.Checkout.Currency,
	}
	settlement := service.NewCheckoutSettlementWorker(checkoutStore, paymentRepo, dashboardSvc, metrics, logr, checkoutCfg)
	settlementQueue := jobs.NewQueue("checkout-settlement", settlement.Handle, jobs.QueueConfig{
		Workers:  cfg.Checkout.Workers,
		Logger:   logr,
		Observer: metrics.ObserveJob,
	})
	settlementQueue.Start(context.Background())
	defer settlementQueue.Stop()
	checkoutSvc := service.NewCheckoutService(checkoutStore, courseRepo, settlementQueue, validate, metrics, logr, checkoutCfg)

	scheduler := jobs.NewScheduler(logr, time.Minute)
	scheduler.Observe(metrics.ObserveJob)
	if err := scheduler.Register("certificate-cleanup", cfg.Certificates.CleanupSchedule, certificateSvc.Cleanup); err != nil {
		logr.Sugar().Fatalw("invalid cleanup schedule", "error", err)
	}
	scheduler.Start()

	// http
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health"))
	r.Use(internalmiddleware.ResponseMeta())

	limiter := internalmiddleware.NewRateLimiter(redisClient, metrics, logr)
	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Catalog:      handler.NewCatalogHandler(catalogSvc),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentSvc),
		Checkout:     handler.NewCheckoutHandler(checkoutSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Profile:      handler.NewProfileHandler(profileSvc),
		Certificates: handler.NewCertificateHandler(certificateSvc),
		Metrics:      handler.NewMetricsHandler(metrics, readiness),
	}, handler.RouteMiddleware{
		RequireAuth:   internalmiddleware.JWT(authSvc),
		OptionalAuth:  internalmiddleware.OptionalJWT(authSvc),
		AuthRateLimit: limiter.Limit("auth", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow),
		EnrollAudit:   internalmiddleware.Audit(userRepo, logr, models.AuditActionEnroll, models.AuditResourceCourse),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("http shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
}

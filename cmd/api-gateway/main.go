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

	_ "github.com/unifyi-dev/admissions-crm-api/api/swagger"
	"github.com/unifyi-dev/admissions-crm-api/internal/handler"
	"github.com/unifyi-dev/admissions-crm-api/internal/middleware"
	"github.com/unifyi-dev/admissions-crm-api/internal/models"
	"github.com/unifyi-dev/admissions-crm-api/internal/queue"
	"github.com/unifyi-dev/admissions-crm-api/internal/repository"
	"github.com/unifyi-dev/admissions-crm-api/internal/service"
	"github.com/unifyi-dev/admissions-crm-api/pkg/cache"
	"github.com/unifyi-dev/admissions-crm-api/pkg/config"
	"github.com/unifyi-dev/admissions-crm-api/pkg/database"
	"github.com/unifyi-dev/admissions-crm-api/pkg/jobs"
	"github.com/unifyi-dev/admissions-crm-api/pkg/logger"
	"github.com/unifyi-dev/admissions-crm-api/pkg/mailer"
	corsmiddleware "github.com/unifyi-dev/admissions-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unifyi-dev/admissions-crm-api/pkg/middleware/requestid"
	"github.com/unifyi-dev/admissions-crm-api/pkg/storage"
)

// @title Admissions CRM API
// @version 1.0.0
// @description REST API for the university admissions CRM: walk-in campus visits, documents, queries, referrals, payments, and admin broadcasts.
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	walkinRepo := repository.NewWalkinRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	universityRepo := repository.NewUniversityRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	queryRepo := repository.NewQueryRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Optional event publisher.
	var publisher *queue.Publisher
	if cfg.Events.Enabled {
		publisher = queue.NewPublisher(cfg.Events.URL, logr)
	}

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "admissions-crm-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)

	walkinOpts := []service.WalkinServiceOption{}
	if publisher != nil {
		walkinOpts = append(walkinOpts, service.WithWalkinEventPublisher(publisher))
	}
	walkinService := service.NewWalkinService(walkinRepo, studentRepo, userRepo, logr,
		service.WalkinServiceConfig{AllowRemodify: cfg.Walkins.AllowRemodify}, walkinOpts...)

	queryService := service.NewQueryService(queryRepo, studentRepo, logr)
	referralService := service.NewReferralService(referralRepo, studentRepo, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	metricsHandler := handler.NewMetricsHandler(metricsService)
	walkinHandler := handler.NewWalkinHandler(walkinService)
	queryHandler := handler.NewQueryHandler(queryService)
	referralHandler := handler.NewReferralHandler(referralService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

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
	authRequired := middleware.JWT(authService)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.POST("/change-password", authRequired, authHandler.ChangePassword)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	api.GET("/system/metrics", authRequired,
		middleware.RequireRoles(models.RoleSuperAdmin), metricsHandler.Summary)

	users := api.Group("/users", authRequired,
		middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	walkins := api.Group("/walkins", authRequired)
	{
		walkins.POST("", middleware.RequireRoles(models.RoleStudent), walkinHandler.Submit)
		walkins.GET("/availability", middleware.RequireRoles(models.RoleStudent), walkinHandler.Availability)
		walkins.GET("/mine", middleware.RequireRoles(models.RoleStudent), walkinHandler.ListMine)
		walkins.GET("/assigned", middleware.RequireRoles(models.RoleCounsellor), walkinHandler.ListAssigned)
		walkins.POST("/:id/decision", middleware.RequireRoles(models.RoleCounsellor), walkinHandler.Decide)
	}

	queries := api.Group("/queries", authRequired)
	{
		queries.POST("", middleware.RequireRoles(models.RoleStudent), queryHandler.Create)
		queries.GET("/mine", middleware.RequireRoles(models.RoleStudent), queryHandler.ListMine)
		queries.GET("/assigned", middleware.RequireRoles(models.RoleCounsellor), queryHandler.ListAssigned)
		queries.GET("/stats", middleware.RequireRoles(models.RoleCounsellor), queryHandler.Stats)
		queries.GET("/:id", queryHandler.Thread)
		queries.POST("/:id/replies", queryHandler.Reply)
		queries.POST("/:id/close", middleware.RequireRoles(models.RoleCounsellor, models.RoleAdmin, models.RoleSuperAdmin), queryHandler.Close)
	}

	referrals := api.Group("/referrals", authRequired,
		middleware.RequireRoles(models.RoleStudent))
	{
		referrals.POST("", referralHandler.Invite)
		referrals.GET("/mine", referralHandler.ListMine)
		referrals.GET("/code", referralHandler.MyCode)
	}

	var commService *service.CommunicationService
	if cfg.Communications.Enabled {
		mail := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.Communications.SMTPHost,
			Port:     cfg.Communications.SMTPPort,
			Username: cfg.Communications.SMTPUser,
			Password: cfg.Communications.SMTPPassword,
			From:     cfg.Communications.FromAddress,
		})
		commOpts := []service.CommunicationServiceOption{}
		if publisher != nil {
			commOpts = append(commOpts, service.WithCommunicationEventPublisher(publisher))
		}
		commService = service.NewCommunicationService(commRepo, universityRepo, mail, userRepo, logr,
			jobs.QueueConfig{
				Workers:    cfg.Communications.DispatchQueue.Workers,
				BufferSize: cfg.Communications.DispatchQueue.BufferSize,
				MaxRetries: cfg.Communications.DispatchQueue.MaxRetries,
				RetryDelay: cfg.Communications.DispatchQueue.RetryDelay,
			}, commOpts...)
		commHandler := handler.NewCommunicationHandler(commService)

		comms := api.Group("/communications", authRequired,
			middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		{
			comms.POST("", middleware.RequireRoles(models.RoleSuperAdmin), commHandler.Send)
			comms.GET("", commHandler.History)
			comms.GET("/universities", commHandler.ListUniversities)
			comms.GET("/export",
				middleware.Audit(userRepo, models.AuditActionBroadcastExport, "communication"),
				commHandler.ExportHistory)
		}
	}

	if cfg.Documents.Enabled {
		documentFiles, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init document storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
		documentService := service.NewDocumentService(documentRepo, studentRepo, documentFiles, signer, userRepo, logr,
			service.DocumentServiceConfig{
				MaxFileSizeBytes: cfg.Documents.MaxFileSizeBytes,
				AllowedMIMEs:     cfg.Documents.AllowedMIMEs,
			})
		documentHandler := handler.NewDocumentHandler(documentService)

		api.GET("/documents/download", documentHandler.Download)
		documents := api.Group("/documents", authRequired)
		{
			documents.POST("", middleware.RequireRoles(models.RoleStudent), documentHandler.Upload)
			documents.GET("/mine", middleware.RequireRoles(models.RoleStudent), documentHandler.ListMine)
			documents.GET("/students/:studentId",
				middleware.RequireRoles(models.RoleCounsellor, models.RoleAdmin, models.RoleSuperAdmin),
				documentHandler.List)
			documents.POST("/:id/review", middleware.RequireRoles(models.RoleCounsellor), documentHandler.Review)
			documents.GET("/:id/download-token",
				middleware.RequireRoles(models.RoleCounsellor, models.RoleAdmin, models.RoleSuperAdmin),
				middleware.Audit(userRepo, models.AuditActionDocumentDownload, "document"),
				documentHandler.DownloadToken)
		}
	}

	if cfg.Payments.Enabled {
		paymentService := service.NewPaymentService(paymentRepo, logr, service.PaymentServiceConfig{
			FeeEnabled:      cfg.Payments.FeeEnabled,
			RegistrationFee: cfg.Payments.RegistrationFee,
			DiscountAmount:  cfg.Payments.DiscountAmount,
		})
		paymentHandler := handler.NewPaymentHandler(paymentService)

		// Gateway callback authenticates via its own signature, not a user token.
		api.POST("/payments/confirm", paymentHandler.Confirm)
		payments := api.Group("/payments", authRequired,
			middleware.RequireRoles(models.RoleStudent))
		{
			payments.GET("/fee", paymentHandler.GetFee)
			payments.POST("/orders", paymentHandler.CreateOrder)
			payments.GET("/mine", paymentHandler.ListMine)
			payments.GET("/:id/receipt", paymentHandler.Receipt)
		}
	}

	if cfg.Dashboard.Enabled {
		dashboardService := service.NewDashboardService(walkinRepo, queryRepo, documentRepo,
			cacheService, cfg.Dashboard.CacheTTL, logr)
		dashboardHandler := handler.NewDashboardHandler(dashboardService)
		api.GET("/dashboard", authRequired,
			middleware.RequireRoles(models.RoleCounsellor), dashboardHandler.Counsellor)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if commService != nil {
		commService.StartDispatch(ctx)
		defer commService.StopDispatch()
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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"natours/docs"
	"natours/internal/auth"
	"natours/internal/cache"
	"natours/internal/config"
	"natours/internal/db"
	"natours/internal/handler"
	"natours/internal/logging"
	"natours/internal/mail"
	"natours/internal/media"
	"natours/internal/metrics"
	"natours/internal/payment"
	"natours/internal/repository"
	"natours/internal/router"
	"natours/internal/service"
	"natours/internal/views"
)

const shutdownTimeout = 10 * time.Second

// @title Natours API
// @version 1.0
// @description Tour booking API with JWT authentication, reviews and Stripe checkout.
// @host localhost:3000
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{
		Service: "natours",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, logger); err != nil {
		logger.Error("database migrate", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, continuing without shared cache", "error", err)
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	tourRepo := repository.NewTourRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)
	paymentLogRepo := repository.NewPaymentLogRepository(gormDB)

	// Outbound integrations
	smtpCfg := mail.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUsername,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
	}
	if cfg.IsProduction() {
		smtpCfg = mail.SendGridConfig(cfg.SendGridUsername, cfg.SendGridPassword, cfg.EmailFrom, cfg.EmailFromName)
	}
	dispatcher, err := mail.NewDispatcher(mail.NewSMTPSender(smtpCfg))
	if err != nil {
		logger.Error("mail init", "error", err)
		os.Exit(1)
	}

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout is disabled")
	}

	// The payment log outlives the HTTP server so late webhook entries are flushed.
	logCtx, stopLog := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	payLog := service.NewPaymentLogger(paymentLogRepo, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		payLog.Run(logCtx)
	}()

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authService := service.NewAuthService(userRepo, jwtService, hasher, dispatcher, logger)
	userService := service.NewUserService(userRepo)
	tourService := service.NewTourService(tourRepo, userRepo, cacheClient)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, tourService)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, userRepo, gateway, payLog, logger)

	setSwaggerHost(cfg.SwaggerHost)
	images := media.NewStore(cfg.PublicDir)
	renderer, err := views.New()
	if err != nil {
		logger.Error("views init", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, router.Deps{
		Config:        cfg,
		Logger:        logger,
		Authenticator: authService,
		Counter:       cacheClient,
		Metrics:       metrics.New(),
		Renderer:      renderer,
	}, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.JWTCookieExpiresIn),
		User:    handler.NewUserHandler(userService, images),
		Tour:    handler.NewTourHandler(tourService, images),
		Review:  handler.NewReviewHandler(reviewService),
		Booking: handler.NewBookingHandler(bookingService),
		View:    handler.NewViewHandler(tourService, bookingService),
	})

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server listening", "addr", addr, "env", cfg.AppEnv)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	stopLog()
	wg.Wait()
	logger.Info("shutdown complete")
}

// setSwaggerHost points the served API docs at the public host. An empty host
// keeps the generated default.
func setSwaggerHost(host string) {
	if host != "" {
		docs.SwaggerInfo.Host = host
	}
}

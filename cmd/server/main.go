package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/database"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/observability"
	"github.com/iliyamo/hotel-booking/internal/payment"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/router"
	"github.com/iliyamo/hotel-booking/internal/scheduler"
	"github.com/iliyamo/hotel-booking/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if cfg.MigrationsDir != "" {
		if err := database.Migrate(ctx, db, cfg.MigrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}
	store := repository.NewStore(db)

	// Redis backs carts, the response cache and the rate limiter.  Without
	// it carts live in process memory and the other two are disabled.
	rdb := config.NewRedisClient()
	var carts cart.Store
	if rdb != nil {
		defer rdb.Close()
		carts = cart.NewRedisStore(rdb, "cart", cfg.CartTTL)
	} else {
		logger.Warn().Msg("redis unreachable: in-memory carts, no cache or rate limit")
		carts = cart.NewMemoryStore(cfg.CartTTL)
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, logger)
	}
	gateway := payment.NewStripeGateway(payment.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Currency:      cfg.Stripe.Currency,
	})

	payments := service.NewPaymentService(store, gateway, events, cfg.Stripe.Currency, logger)
	bookings := service.NewBookingService(store, payments, logger)
	accounts := service.NewAccountService(store, service.AccountConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, logger)
	if err := accounts.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal().Err(err).Msg("ensure admin account")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))

	var metrics http.Handler
	if cfg.MetricsEnabled {
		metrics = observability.MetricsHandler(observability.InitRegistry())
	}
	router.RegisterRoutes(e, db, metrics)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, logger), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicHandler(service.NewCatalogService(store), service.NewAvailabilityChecker(store), logger),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	paymentHandler := handler.NewPaymentHandler(payments, logger)
	bookingHandler := handler.NewBookingHandler(bookings, logger)
	router.RegisterPayments(e, paymentHandler)
	router.RegisterCart(e, handler.NewCartHandler(service.NewCartService(carts, store, bookings, logger), logger), cfg.JWTSecret, cfg.CartTTL)
	router.RegisterCustomer(e, bookingHandler, paymentHandler, cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(service.NewAdminService(store, logger), logger),
		handler.NewManageHandler(service.NewManagementService(store, logger), logger),
		bookingHandler, cfg.JWTSecret)

	jobs, err := scheduler.New(store.Tokens(), cfg.TokenPurgeEvery, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return jobs.Run(gctx) })
	if cfg.RabbitURL != "" {
		var mailer queue.Mailer
		if cfg.SMTP.Host != "" {
			mailer = queue.NewSMTPMailer(queue.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			})
		}
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogDir, mailer, logger)
		g.Go(func() error { return consumer.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("shutdown complete")
}

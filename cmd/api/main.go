package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/payment-portal/internal/api/http"
	"github.com/spec-kit/payment-portal/internal/api/http/handlers"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/config"
	"github.com/spec-kit/payment-portal/internal/crypto"
	"github.com/spec-kit/payment-portal/internal/events"
	"github.com/spec-kit/payment-portal/internal/observability"
	"github.com/spec-kit/payment-portal/internal/persistence"
	"github.com/spec-kit/payment-portal/internal/repository"
	"github.com/spec-kit/payment-portal/internal/service"
	"github.com/spec-kit/payment-portal/internal/session"
	"github.com/spec-kit/payment-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	customerRepo := repository.NewCustomerRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	fieldCipher := crypto.NewFieldCipher(cfg.Crypto.FieldKey)
	sessionStore := session.NewRedisStore(redis.Client)
	sessionManager := session.NewManager(sessionStore, cfg.Session.IdleTimeout(), cfg.Session.AbsoluteTimeout(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
		Sessions:     sessionManager,
		Cipher:       fieldCipher,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	adminService := service.NewAdminService(*cfg, employeeRepo, dispatcher, logger)
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: paymentRepo,
		Cipher:      fieldCipher,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	if err := adminService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to seed bootstrap admin", zap.Error(err))
	}

	sessionMiddleware := auth.NewSessionMiddleware(sessionManager, cfg.Session.CookieName, cfg.Session.CookieSecure)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:             handlers.NewAuthHandler(authService, sessionMiddleware),
		CustomerPayments: handlers.NewCustomerPaymentsHandler(paymentService),
		EmployeePayments: handlers.NewEmployeePaymentsHandler(paymentService),
		Admin:            handlers.NewAdminHandler(adminService),
		Sessions:         sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/shade-pay/backend/internal/config"
	"github.com/shade-pay/backend/internal/db"
	"github.com/shade-pay/backend/internal/events"
	apphttp "github.com/shade-pay/backend/internal/http"
	"github.com/shade-pay/backend/internal/http/handlers"
	"github.com/shade-pay/backend/internal/repositories"
	"github.com/shade-pay/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Storage
	store := repositories.NewStore(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	adminService := services.NewAdminService(store, publisher, log)
	accessService := services.NewAccessService(store, publisher, log)
	merchantService := services.NewMerchantService(store, publisher, log)
	accountService := services.NewAccountService(store, publisher, cfg.EngineAddress, log)
	gateway := services.NewEngineGateway(accountService, cfg.EngineAddress)
	invoiceService := services.NewInvoiceService(store, gateway, publisher, cfg.EngineAddress, log)

	// Bootstrap the admin from config on first run.
	if cfg.AdminAddress != "" {
		if err := adminService.Initialize(ctx, cfg.AdminAddress); err != nil {
			if !errors.Is(err, services.ErrAlreadyInitialized) {
				log.Fatal("failed to initialize admin", zap.Error(err))
			}
		} else {
			log.Info("admin initialized", zap.String("admin", cfg.AdminAddress))
		}
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, log)
	adminHandler := handlers.NewAdminHandler(adminService, accessService, log)
	merchantHandler := handlers.NewMerchantHandler(merchantService, log)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, log)
	accountHandler := handlers.NewAccountHandler(accountService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, adminHandler, merchantHandler, invoiceHandler, accountHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/shade-pay/backend/internal/config"
	"github.com/shade-pay/backend/internal/http/handlers"
	"github.com/shade-pay/backend/internal/middleware"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	merchantHandler *handlers.MerchantHandler,
	invoiceHandler *handlers.InvoiceHandler,
	accountHandler *handlers.AccountHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/token", authHandler.IssueToken)

	// Bootstrap (public: no admin exists before this succeeds, and it is
	// write-once afterwards)
	api.Post("/admin/initialize", adminHandler.Initialize)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Public reads
	api.Get("/admin", adminHandler.GetAdmin)
	api.Get("/admin/paused", adminHandler.IsPaused)
	api.Get("/admin/tokens/:token", adminHandler.IsAcceptedToken)
	api.Get("/admin/fees/:token", adminHandler.GetFee)
	api.Get("/roles/:user/:role", adminHandler.HasRole)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Admin
	protected.Post("/admin/pause", adminHandler.Pause)
	protected.Post("/admin/unpause", adminHandler.Unpause)
	protected.Post("/admin/tokens", adminHandler.AddAcceptedToken)
	protected.Delete("/admin/tokens/:token", adminHandler.RemoveAcceptedToken)
	protected.Put("/admin/fees", adminHandler.SetFee)
	protected.Post("/admin/mint", adminHandler.Mint)
	protected.Post("/admin/roles/grant", adminHandler.GrantRole)
	protected.Post("/admin/roles/revoke", adminHandler.RevokeRole)

	// Merchants
	protected.Post("/merchants", merchantHandler.Register)
	protected.Get("/merchants", merchantHandler.List)
	protected.Get("/merchants/by-address/:address", merchantHandler.IsMerchant)
	protected.Get("/merchants/:id", merchantHandler.Get)
	protected.Post("/merchants/:id/verify", merchantHandler.Verify)
	protected.Get("/merchants/:id/verified", merchantHandler.IsVerified)
	protected.Post("/merchants/account", merchantHandler.SetAccount)

	// Invoices
	protected.Post("/invoices", invoiceHandler.Create)
	protected.Get("/invoices", invoiceHandler.List)
	protected.Get("/invoices/:id", invoiceHandler.Get)
	protected.Post("/invoices/:id/pay", invoiceHandler.Pay)
	protected.Post("/invoices/:id/void", invoiceHandler.Void)
	protected.Post("/invoices/:id/refund", invoiceHandler.Refund)
	protected.Get("/invoices/:id/events", invoiceHandler.GetEvents)

	// Escrow accounts
	protected.Post("/accounts", accountHandler.Open)
	protected.Get("/accounts/:address", accountHandler.Get)
	protected.Post("/accounts/:address/tokens", accountHandler.AddToken)
	protected.Get("/accounts/:address/tokens/:token", accountHandler.HasToken)
	protected.Get("/accounts/:address/balances", accountHandler.GetBalances)
	protected.Get("/accounts/:address/balance/:token", accountHandler.GetBalance)
	protected.Post("/accounts/:address/withdraw", accountHandler.Withdraw)
	protected.Post("/accounts/:address/refund", accountHandler.Refund)
	protected.Put("/accounts/:address/restricted", accountHandler.Restrict)
	protected.Get("/accounts/:address/restricted", accountHandler.IsRestricted)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}

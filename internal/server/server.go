// Package server assembles the fiber application: middleware, error
// handling and the route table. Kept out of main so tests can stand up the
// same app against their own database.
package server

import (
	"log"
	"strings"

	"comanda/internal/audit"
	"comanda/internal/auth"
	"comanda/internal/catalog"
	"comanda/internal/config"
	"comanda/internal/kitchen"
	"comanda/internal/models"
	"comanda/internal/orders"
	"comanda/internal/tables"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth endpoints.
	app.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	app.Post("/auth/login", auth.LoginHandler(cfg))

	adminOnly := auth.RequireRole(models.RoleAdmin)

	api := app.Group("")
	if cfg.JWTSecret != "" {
		api.Use(auth.JWTMiddleware(cfg))
		api.Get("/auth/me", auth.MeHandler())
		api.Post("/auth/users", adminOnly, auth.CreateUserHandler())
	}

	// Products
	api.Get("/products", catalog.ListProductsHandler())
	api.Post("/products", adminOnly, catalog.CreateProductHandler())
	api.Put("/products/:id", adminOnly, catalog.UpdateProductHandler())
	api.Delete("/products/:id", adminOnly, catalog.DeleteProductHandler())

	// Tables
	api.Get("/tables", tables.ListTablesHandler())
	api.Get("/tables/available", tables.ListAvailableTablesHandler())
	api.Post("/tables", adminOnly, tables.CreateTableHandler())
	api.Get("/tables/:id", tables.GetTableHandler())
	api.Put("/tables/:id", adminOnly, tables.UpdateTableHandler())
	api.Delete("/tables/:id", adminOnly, tables.DeleteTableHandler())

	// Orders
	api.Get("/orders", orders.ListOrdersHandler())
	api.Get("/orders/by-date", orders.ListOrdersByDateHandler())
	api.Post("/orders", orders.CreateOrderHandler())
	api.Put("/orders/:id/close", orders.CloseOrderHandler())
	api.Put("/orders/:id/kitchen-status", kitchen.UpdateKitchenStatusHandler())
	api.Get("/orders/:id", orders.GetOrderHandler())
	api.Put("/orders/:id", orders.UpdateOrderHandler())
	api.Delete("/orders/:id", orders.DeleteOrderHandler())

	// Kitchen board
	api.Get("/kitchen/orders", kitchen.ListKitchenOrdersHandler())

	// Audit trail
	api.Get("/audit-logs", audit.ListAuditLogsHandler())

	return app
}

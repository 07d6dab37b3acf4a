// Package kitchen serves the preparation board: open orders and their
// forward-only progression through the kitchen stages.
package kitchen

import (
	"fmt"

	"comanda/internal/audit"
	"comanda/internal/auth"
	"comanda/internal/database"
	"comanda/internal/models"
	"comanda/pkg/status"

	"github.com/gofiber/fiber/v2"
)

type UpdateKitchenStatusRequest struct {
	Status status.Kitchen `json:"status"`
}

// GET /kitchen/orders
//
// Open orders only, oldest first, so the board reads as a queue.
func ListKitchenOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orders []models.Order
		if err := database.DB.Preload("Table").Preload("Items.Product").
			Where("status = ?", status.Open).
			Order("created_at asc").
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch kitchen orders")
		}
		return c.JSON(orders)
	}
}

// PUT /orders/:id/kitchen-status
//
// Only the immediate next stage is accepted: Waiting -> Preparing -> Ready
// -> Served. Regressions and stage skips are rejected, whichever station
// sends them.
func UpdateKitchenStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.Order
		if err := database.DB.First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}

		if order.Status != status.Open {
			return fiber.NewError(fiber.StatusBadRequest, "Order already closed")
		}

		var req UpdateKitchenStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if !req.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid kitchen status")
		}
		if !status.CanAdvance(order.KitchenStatus, req.Status) {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Cannot move order from %q to %q", order.KitchenStatus, req.Status))
		}

		before := order.KitchenStatus
		order.KitchenStatus = req.Status
		if err := database.DB.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update kitchen status")
		}

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Order %d moved from %s to %s", order.ID, before, req.Status),
		})

		database.DB.Preload("Table").Preload("Items.Product").First(&order, order.ID)
		return c.JSON(order)
	}
}

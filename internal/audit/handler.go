package audit

import (
	"strconv"

	"comanda/internal/database"
	"comanda/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /audit-logs?entity_type=order&entity_id=3&limit=50
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.AuditLog{}).Order("created_at desc")

		if et := c.Query("entity_type"); et != "" {
			q = q.Where("entity_type = ?", et)
		}
		if eid := c.Query("entity_id"); eid != "" {
			id, err := strconv.Atoi(eid)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "entity_id must be numeric")
			}
			q = q.Where("entity_id = ?", id)
		}

		limit := 100
		if ls := c.Query("limit"); ls != "" {
			l, err := strconv.Atoi(ls)
			if err != nil || l <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive number")
			}
			limit = l
		}

		var logs []models.AuditLog
		if err := q.Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch audit logs")
		}

		return c.JSON(logs)
	}
}

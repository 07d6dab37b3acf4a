// Package tables manages dining tables and their availability for new orders.
package tables

import (
	"strings"

	"comanda/internal/audit"
	"comanda/internal/auth"
	"comanda/internal/database"
	"comanda/internal/models"
	"comanda/pkg/status"

	"github.com/gofiber/fiber/v2"
)

// ErrHasOpenOrders is the distinguished message clients match on when a
// table delete is blocked. Changing it breaks them.
const ErrHasOpenOrders = "Cannot delete table with open orders"

type TableRequest struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	SingleTab bool   `json:"single_tab"`
}

func (r *TableRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	if r.Capacity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Capacity must be greater than zero")
	}
	return nil
}

// POST /tables
func CreateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		table := models.Table{
			Name:      body.Name,
			Capacity:  body.Capacity,
			SingleTab: body.SingleTab,
		}

		if err := database.DB.Create(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create table")
		}

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "table",
			EntityID:    table.ID,
			Action:      models.AuditActionCreate,
			Description: "Table " + table.Name + " created",
			After:       table,
		})

		return c.Status(fiber.StatusCreated).JSON(table)
	}
}

// GET /tables
func ListTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tables []models.Table
		if err := database.DB.Order("name asc").Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch tables")
		}
		return c.JSON(tables)
	}
}

// GET /tables/available
//
// A table is unavailable only while it is a single-tab table holding an open
// order. Multi-tab tables accept any number of concurrent orders.
func ListAvailableTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var occupiedIDs []uint
		if err := database.DB.Model(&models.Order{}).
			Distinct("table_id").
			Where("status = ?", status.Open).
			Pluck("table_id", &occupiedIDs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to check occupied tables")
		}

		q := database.DB.Order("name asc")
		if len(occupiedIDs) > 0 {
			q = q.Where("single_tab = ? OR id NOT IN (?)", false, occupiedIDs)
		}

		var tables []models.Table
		if err := q.Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch available tables")
		}

		return c.JSON(tables)
	}
}

// GET /tables/:id
func GetTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var table models.Table
		if err := database.DB.First(&table, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Table not found")
		}
		return c.JSON(table)
	}
}

// PUT /tables/:id
func UpdateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var table models.Table
		if err := database.DB.First(&table, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Table not found")
		}

		var body TableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		before := table

		table.Name = body.Name
		table.Capacity = body.Capacity
		table.SingleTab = body.SingleTab

		if err := database.DB.Save(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update table")
		}

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "table",
			EntityID:    table.ID,
			Action:      models.AuditActionUpdate,
			Description: "Table " + table.Name + " updated",
			Before:      before,
			After:       table,
		})

		return c.JSON(table)
	}
}

// DELETE /tables/:id
func DeleteTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var table models.Table
		if err := database.DB.First(&table, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Table not found")
		}

		var openCount int64
		if err := database.DB.Model(&models.Order{}).
			Where("table_id = ? AND status = ?", table.ID, status.Open).
			Count(&openCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to check for open orders")
		}
		if openCount > 0 {
			return fiber.NewError(fiber.StatusConflict, ErrHasOpenOrders)
		}

		if err := database.DB.Delete(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete table")
		}

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "table",
			EntityID:    table.ID,
			Action:      models.AuditActionDelete,
			Description: "Table " + table.Name + " deleted",
			Before:      table,
		})

		return c.JSON(fiber.Map{"message": "Table deleted successfully"})
	}
}

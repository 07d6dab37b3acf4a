// Package orders implements the order lifecycle: a tab is opened against a
// table for a calendar day, its items reserve product stock, and it stays
// mutable until it is closed or deleted. All stock movement happens here,
// inside one transaction per mutation.
package orders

import (
	"errors"
	"fmt"
	"time"

	"comanda/internal/audit"
	"comanda/internal/auth"
	"comanda/internal/cache"
	"comanda/internal/database"
	"comanda/internal/models"
	"comanda/pkg/status"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type OrderRequest struct {
	TableID uint             `json:"table_id"`
	Items   []OrderItemInput `json:"items"`
	Date    string           `json:"date"`
}

type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func (r *OrderRequest) validate() (time.Time, error) {
	if r.TableID == 0 {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "table_id is required")
	}
	if len(r.Items) == 0 {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "An order needs at least one item")
	}

	seen := make(map[uint]bool, len(r.Items))
	for _, item := range r.Items {
		if item.ProductID == 0 {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "product_id is required for every item")
		}
		if item.Quantity <= 0 {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Quantity must be greater than zero")
		}
		if seen[item.ProductID] {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Duplicate product in order")
		}
		seen[item.ProductID] = true
	}

	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid date format for order. Use YYYY-MM-DD")
	}
	return date, nil
}

// checkSingleTab rejects the request when the target table is single-tab and
// already holds an open order.
func checkSingleTab(tx *gorm.DB, table *models.Table) error {
	if !table.SingleTab {
		return nil
	}

	var existing models.Order
	err := tx.Where("table_id = ? AND status = ?", table.ID, status.Open).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("Table %s already has an open order (Order ID: %d)", table.Name, existing.ID))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to check table status")
	}
	return nil
}

// reserveItems verifies stock for every requested item, creates the order
// items and decrements stock. Runs inside the caller's transaction.
func reserveItems(tx *gorm.DB, orderID uint, items []OrderItemInput) error {
	for _, item := range items {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product not found")
		}
		if product.Stock < item.Quantity {
			return fiber.NewError(fiber.StatusBadRequest, "Insufficient stock for product "+product.Name)
		}
	}

	for _, item := range items {
		orderItem := models.OrderItem{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
			return err
		}
	}

	return nil
}

// releaseItems restores stock held by the order's current items and deletes
// them. Runs inside the caller's transaction.
func releaseItems(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	for _, item := range items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}

	return tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
}

// asFiberError keeps handler-level status codes produced inside a
// transaction; anything else becomes a 500.
func asFiberError(err error, fallback string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fiber.NewError(fiber.StatusInternalServerError, fallback+": "+err.Error())
}

// POST /orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req OrderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		date, err := req.validate()
		if err != nil {
			return err
		}

		var table models.Table
		if err := database.DB.First(&table, req.TableID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Table not found")
		}

		order := models.Order{
			TableID:       req.TableID,
			Status:        status.Open,
			KitchenStatus: status.Waiting,
			Date:          date,
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := checkSingleTab(tx, &table); err != nil {
				return err
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			return reserveItems(tx, order.ID, req.Items)
		})
		if txErr != nil {
			return asFiberError(txErr, "Failed to create order")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Order opened for table %s", table.Name),
			After:       req,
		})

		database.DB.Preload("Table").Preload("Items.Product").First(&order, order.ID)
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// GET /orders
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orders []models.Order
		if err := database.DB.Preload("Table").Preload("Items.Product").
			Order("created_at desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch orders")
		}
		return c.JSON(orders)
	}
}

// GET /orders/by-date?date=YYYY-MM-DD
func ListOrdersByDateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Date parameter is required")
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		}

		start := date
		end := start.AddDate(0, 0, 1)

		var orders []models.Order
		if err := database.DB.Preload("Table").Preload("Items.Product").
			Where("date >= ? AND date < ?", start, end).
			Order("created_at asc").
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch orders for the specified date")
		}
		return c.JSON(orders)
	}
}

// GET /orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.Order
		if err := database.DB.Preload("Table").Preload("Items.Product").
			First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Order not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch order")
		}
		return c.JSON(order)
	}
}

// PUT /orders/:id
func UpdateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.Order
		if err := database.DB.First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}

		if order.Status != status.Open {
			return fiber.NewError(fiber.StatusBadRequest, "Cannot edit a closed order")
		}

		var req OrderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		date, err := req.validate()
		if err != nil {
			return err
		}

		var newTable models.Table
		if err := database.DB.First(&newTable, req.TableID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Table not found")
		}

		before := order

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			// Moving to another single-tab table requires it to be free.
			// Staying on the current table is always allowed.
			if newTable.ID != order.TableID {
				if err := checkSingleTab(tx, &newTable); err != nil {
					return err
				}
			}

			// Give the current items back first, so quantity decreases and
			// no-op edits never fail the stock check.
			if err := releaseItems(tx, order.ID); err != nil {
				return err
			}

			order.TableID = req.TableID
			order.Date = date
			if err := tx.Save(&order).Error; err != nil {
				return err
			}

			return reserveItems(tx, order.ID, req.Items)
		})
		if txErr != nil {
			return asFiberError(txErr, "Failed to update order")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Order %d updated", order.ID),
			Before:      before,
			After:       req,
		})

		database.DB.Preload("Table").Preload("Items.Product").First(&order, order.ID)
		return c.JSON(order)
	}
}

// PUT /orders/:id/close
func CloseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.Order
		if err := database.DB.Preload("Table").First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}

		if order.Status == status.Closed {
			return fiber.NewError(fiber.StatusBadRequest, "Order already closed")
		}

		order.Status = status.Closed
		if err := database.DB.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to close order")
		}

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionClose,
			Description: fmt.Sprintf("Order for table %s closed", order.Table.Name),
		})

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Order for table %s closed successfully", order.Table.Name),
		})
	}
}

// DELETE /orders/:id
func DeleteOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var order models.Order
		if err := database.DB.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Order not found")
		}

		before := order

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := releaseItems(tx, order.ID); err != nil {
				return err
			}
			return tx.Delete(&order).Error
		})
		if txErr != nil {
			return asFiberError(txErr, "Error deleting order and restoring stock")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "order",
			EntityID:    order.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Order %d deleted", order.ID),
			Before:      before,
		})

		return c.JSON(fiber.Map{"message": "Order deleted successfully and stock restored"})
	}
}

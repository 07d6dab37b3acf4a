// Package catalog manages the product catalog and its stock counts.
package catalog

import (
	"strings"

	"comanda/internal/audit"
	"comanda/internal/auth"
	"comanda/internal/cache"
	"comanda/internal/database"
	"comanda/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func (r *ProductRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	if r.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Price must be greater than zero")
	}
	if r.Stock < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Stock cannot be negative")
	}
	return nil
}

// GET /products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if products, ok := cache.GetProductList(c.Context()); ok {
			return c.JSON(products)
		}

		var products []models.Product
		if err := database.DB.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch products")
		}

		cache.SetProductList(c.Context(), products)
		return c.JSON(products)
	}
}

// POST /products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		product := models.Product{
			Name:  body.Name,
			Price: body.Price,
			Stock: body.Stock,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create product")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionCreate,
			Description: "Product " + product.Name + " created",
			After:       product,
		})

		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// PUT /products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return err
		}

		before := product

		product.Name = body.Name
		product.Price = body.Price
		product.Stock = body.Stock

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update product")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionUpdate,
			Description: "Product " + product.Name + " updated",
			Before:      before,
			After:       product,
		})

		return c.JSON(product)
	}
}

// DELETE /products/:id
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete product")
		}

		cache.InvalidateProducts(c.Context())

		userID, userName := auth.Identity(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionDelete,
			Description: "Product " + product.Name + " deleted",
			Before:      product,
		})

		return c.JSON(fiber.Map{"message": "Product deleted successfully"})
	}
}

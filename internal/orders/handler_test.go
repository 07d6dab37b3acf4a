package orders_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"comanda/internal/config"
	"comanda/internal/database"
	"comanda/internal/models"
	"comanda/internal/server"
	"comanda/pkg/status"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	return server.New(&config.Config{CORSOrigins: "http://localhost"})
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &payload)
	return payload.Error
}

func createProduct(t *testing.T, app *fiber.App, name string, price float64, stock int) models.Product {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/products", map[string]any{
		"name": name, "price": price, "stock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Product
	decodeBody(t, resp, &p)
	return p
}

func createTable(t *testing.T, app *fiber.App, name string, capacity int, singleTab bool) models.Table {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/tables", map[string]any{
		"name": name, "capacity": capacity, "single_tab": singleTab,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tb models.Table
	decodeBody(t, resp, &tb)
	return tb
}

func productStock(t *testing.T, app *fiber.App, id uint) int {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, "/products", nil)
	var products []models.Product
	decodeBody(t, resp, &products)
	for _, p := range products {
		if p.ID == id {
			return p.Stock
		}
	}
	t.Fatalf("product %d not found", id)
	return 0
}

func orderPayload(tableID, productID uint, qty int, date string) map[string]any {
	return map[string]any{
		"table_id": tableID,
		"items":    []map[string]any{{"product_id": productID, "quantity": qty}},
		"date":     date,
	}
}

func TestCreateOrder(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, true)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 2, "2024-01-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	decodeBody(t, resp, &order)
	assert.NotZero(t, order.ID)
	assert.Equal(t, status.Open, order.Status)
	assert.Equal(t, status.Waiting, order.KitchenStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, soda.ID, order.Items[0].ProductID)
	assert.Equal(t, "Soda", order.Items[0].Product.Name, "embedded product snapshot")
	assert.Equal(t, "T1", order.Table.Name, "embedded table snapshot")

	assert.Equal(t, 8, productStock(t, app, soda.ID), "stock decremented by the order")

	resp = doJSON(t, app, http.MethodGet, "/orders", nil)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCreateOrderValidation(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, false)

	tests := []struct {
		name string
		body map[string]any
		code int
		want string
	}{
		{
			"no items",
			map[string]any{"table_id": table.ID, "items": []map[string]any{}, "date": "2024-01-01"},
			http.StatusBadRequest, "An order needs at least one item",
		},
		{
			"zero quantity",
			orderPayload(table.ID, soda.ID, 0, "2024-01-01"),
			http.StatusBadRequest, "Quantity must be greater than zero",
		},
		{
			"duplicate product",
			map[string]any{
				"table_id": table.ID,
				"items": []map[string]any{
					{"product_id": soda.ID, "quantity": 1},
					{"product_id": soda.ID, "quantity": 2},
				},
				"date": "2024-01-01",
			},
			http.StatusBadRequest, "Duplicate product in order",
		},
		{
			"bad date",
			orderPayload(table.ID, soda.ID, 1, "01/01/2024"),
			http.StatusBadRequest, "Invalid date format for order. Use YYYY-MM-DD",
		},
		{
			"unknown table",
			orderPayload(999, soda.ID, 1, "2024-01-01"),
			http.StatusBadRequest, "Table not found",
		},
		{
			"unknown product",
			orderPayload(table.ID, 999, 1, "2024-01-01"),
			http.StatusBadRequest, "Product not found",
		},
		{
			"insufficient stock",
			orderPayload(table.ID, soda.ID, 11, "2024-01-01"),
			http.StatusBadRequest, "Insufficient stock for product Soda",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/orders", tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.want, errorMessage(t, resp))
		})
	}

	assert.Equal(t, 10, productStock(t, app, soda.ID), "no stock moved by rejected orders")
}

func TestCreateOrderSingleTabConflict(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	single := createTable(t, app, "T1", 4, true)
	multi := createTable(t, app, "Bar", 8, false)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(single.ID, soda.ID, 1, "2024-01-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/orders", orderPayload(single.ID, soda.ID, 1, "2024-01-01"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, errorMessage(t, resp), "already has an open order")

	// Multi-tab tables take any number of concurrent orders.
	resp = doJSON(t, app, http.MethodPost, "/orders", orderPayload(multi.ID, soda.ID, 1, "2024-01-01"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPost, "/orders", orderPayload(multi.ID, soda.ID, 1, "2024-01-01"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateOrderStockAccounting(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	fries := createProduct(t, app, "Fries", 4.0, 5)
	table := createTable(t, app, "T1", 4, true)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 4, "2024-01-01"))
	var order models.Order
	decodeBody(t, resp, &order)
	require.Equal(t, 6, productStock(t, app, soda.ID))

	// The full effective stock (remaining + held by this order) may be
	// requested again; a no-op edit never fails the stock check.
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID),
		orderPayload(table.ID, soda.ID, 10, "2024-01-01"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 0, productStock(t, app, soda.ID))

	// Beyond effective stock is rejected and nothing moves.
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID),
		orderPayload(table.ID, soda.ID, 11, "2024-01-01"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Insufficient stock for product Soda", errorMessage(t, resp))
	assert.Equal(t, 0, productStock(t, app, soda.ID))

	// Swapping products releases the old reservation.
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID),
		orderPayload(table.ID, fries.ID, 2, "2024-01-01"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Order
	decodeBody(t, resp, &updated)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, fries.ID, updated.Items[0].ProductID)
	assert.Equal(t, 10, productStock(t, app, soda.ID))
	assert.Equal(t, 3, productStock(t, app, fries.ID))
}

func TestUpdateClosedOrderRejected(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, true)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 1, "2024-01-01"))
	var order models.Order
	decodeBody(t, resp, &order)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d/close", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID),
		orderPayload(table.ID, soda.ID, 2, "2024-01-01"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cannot edit a closed order", errorMessage(t, resp))
}

func TestCloseOrder(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, true)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 1, "2024-01-01"))
	var order models.Order
	decodeBody(t, resp, &order)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d/close", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]string
	decodeBody(t, resp, &payload)
	assert.Contains(t, payload["message"], "closed successfully")

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), nil)
	var closed models.Order
	decodeBody(t, resp, &closed)
	assert.Equal(t, status.Closed, closed.Status)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d/close", order.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Order already closed", errorMessage(t, resp))
}

func TestDeleteOrderCascadesAndRestoresStock(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, true)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 3, "2024-01-01"))
	var order models.Order
	decodeBody(t, resp, &order)
	require.Equal(t, 7, productStock(t, app, soda.ID))

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/orders", nil)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	assert.Empty(t, orders)

	assert.Equal(t, 10, productStock(t, app, soda.ID))

	var itemCount int64
	require.NoError(t, database.DB.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount, "items deleted with the order")
}

func TestOrdersByDate(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "Bar", 8, false)

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 1, "2024-01-01"))
	var first models.Order
	decodeBody(t, resp, &first)
	resp = doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 1, "2024-01-02"))
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/orders/by-date?date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/orders/by-date", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Date parameter is required", errorMessage(t, resp))

	resp = doJSON(t, app, http.MethodGet, "/orders/by-date?date=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", errorMessage(t, resp))
}

// Availability round trip: a single-tab table leaves the available set while
// its order is open and returns once the order closes.
func TestSingleTabAvailabilityScenario(t *testing.T) {
	app := setupApp(t)
	soda := createProduct(t, app, "Soda", 2.5, 10)
	table := createTable(t, app, "T1", 4, true)

	availableNames := func() []string {
		resp := doJSON(t, app, http.MethodGet, "/tables/available", nil)
		var tables []models.Table
		decodeBody(t, resp, &tables)
		names := []string{}
		for _, tb := range tables {
			names = append(names, tb.Name)
		}
		return names
	}

	assert.Contains(t, availableNames(), "T1")

	resp := doJSON(t, app, http.MethodPost, "/orders", orderPayload(table.ID, soda.ID, 2, "2024-01-01"))
	var order models.Order
	decodeBody(t, resp, &order)

	assert.NotContains(t, availableNames(), "T1")

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d/close", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Contains(t, availableNames(), "T1")
}

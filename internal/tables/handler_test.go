package tables_test

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
	"comanda/internal/tables"
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

func openOrderFor(t *testing.T, app *fiber.App, tableID uint) models.Order {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/products", map[string]any{
		"name": fmt.Sprintf("Soda-%d", tableID), "price": 2.5, "stock": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Product
	decodeBody(t, resp, &p)

	resp = doJSON(t, app, http.MethodPost, "/orders", map[string]any{
		"table_id": tableID,
		"items":    []map[string]any{{"product_id": p.ID, "quantity": 1}},
		"date":     "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	return order
}

func TestTableRoundTrip(t *testing.T) {
	app := setupApp(t)

	created := createTable(t, app, "T1", 4, true)
	assert.NotZero(t, created.ID)
	assert.True(t, created.SingleTab)

	resp := doJSON(t, app, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Table
	decodeBody(t, resp, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "T1", all[0].Name)
	assert.Equal(t, 4, all[0].Capacity)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/tables/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var one models.Table
	decodeBody(t, resp, &one)
	assert.Equal(t, created.ID, one.ID)

	resp = doJSON(t, app, http.MethodGet, "/tables/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Table not found", errorMessage(t, resp))
}

func TestCreateTableValidation(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing name", map[string]any{"capacity": 4}, "Name is required"},
		{"blank name", map[string]any{"name": " ", "capacity": 4}, "Name is required"},
		{"zero capacity", map[string]any{"name": "T1", "capacity": 0}, "Capacity must be greater than zero"},
		{"negative capacity", map[string]any{"name": "T1", "capacity": -2}, "Capacity must be greater than zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/tables", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, errorMessage(t, resp))
		})
	}
}

func TestUpdateTable(t *testing.T) {
	app := setupApp(t)
	created := createTable(t, app, "T1", 4, false)

	resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/tables/%d", created.ID), map[string]any{
		"name": "Terrace 1", "capacity": 6, "single_tab": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Table
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Terrace 1", updated.Name)
	assert.Equal(t, 6, updated.Capacity)
	assert.True(t, updated.SingleTab)

	resp = doJSON(t, app, http.MethodPut, "/tables/999", map[string]any{
		"name": "Ghost", "capacity": 2,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Table not found", errorMessage(t, resp))
}

func TestAvailableTablesExcludesOccupiedSingleTab(t *testing.T) {
	app := setupApp(t)
	single := createTable(t, app, "T1", 4, true)
	multi := createTable(t, app, "Bar", 8, false)
	idle := createTable(t, app, "T2", 2, true)

	openOrderFor(t, app, single.ID)
	openOrderFor(t, app, multi.ID)

	resp := doJSON(t, app, http.MethodGet, "/tables/available", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var available []models.Table
	decodeBody(t, resp, &available)

	names := []string{}
	for _, tb := range available {
		names = append(names, tb.Name)
	}
	assert.NotContains(t, names, "T1", "occupied single-tab table is hidden")
	assert.Contains(t, names, "Bar", "multi-tab tables stay available while occupied")
	assert.Contains(t, names, "T2")
	_ = idle
}

func TestDeleteTableGuardedByOpenOrders(t *testing.T) {
	app := setupApp(t)
	table := createTable(t, app, "T1", 4, true)
	order := openOrderFor(t, app, table.ID)

	resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/tables/%d", table.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, tables.ErrHasOpenOrders, errorMessage(t, resp))

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/orders/%d/close", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Closed orders no longer pin the table.
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/tables/%d", table.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/tables", nil)
	var remaining []models.Table
	decodeBody(t, resp, &remaining)
	assert.Empty(t, remaining)
}

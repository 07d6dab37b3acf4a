package client

import (
	"time"

	"comanda/pkg/status"
)

// Entity shapes as served by the API. Orders embed table and product
// snapshots for display, exactly as the list endpoints return them.

type Product struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Table struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	SingleTab bool      `json:"single_tab"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        uint    `json:"id"`
	OrderID   uint    `json:"order_id"`
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

type Order struct {
	ID            uint           `json:"id"`
	TableID       uint           `json:"table_id"`
	Table         Table          `json:"table"`
	Status        status.Order   `json:"status"`
	KitchenStatus status.Kitchen `json:"kitchen_status"`
	Date          time.Time      `json:"date"`
	Items         []OrderItem    `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Request payloads.

type ProductInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type TableInput struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	SingleTab bool   `json:"single_tab"`
}

type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type OrderInput struct {
	TableID uint             `json:"table_id"`
	Items   []OrderItemInput `json:"items"`
	Date    string           `json:"date"` // YYYY-MM-DD
}

type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

package models

import (
	"time"

	"comanda/pkg/status"
)

type Order struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	TableID uint  `gorm:"index;not null" json:"table_id"`
	Table   Table `json:"table"`

	Status status.Order `gorm:"size:20;index;not null" json:"status"`

	// KitchenStatus is empty on orders that predate the kitchen board.
	KitchenStatus status.Kitchen `gorm:"size:20" json:"kitchen_status"`

	// Date is the calendar day the order belongs to.
	Date time.Time `gorm:"type:date;index" json:"date"`

	Items []OrderItem `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

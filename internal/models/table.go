package models

import "time"

type Table struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Capacity int    `gorm:"not null" json:"capacity"`

	// SingleTab tables host at most one open order at a time and drop out
	// of /tables/available while that order stays open.
	SingleTab bool `gorm:"not null;default:false" json:"single_tab"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// Supplier identifies a restock source for products.
type Supplier struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;type:text;not null"`
	ContactName  *string   `gorm:"column:contact_name"`
	ContactEmail *string   `gorm:"column:contact_email"`
	ContactPhone *string   `gorm:"column:contact_phone"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

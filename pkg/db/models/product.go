package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
)

// Product represents a catalog listing with its on-hand stock count.
// StockQuantity only changes under a row lock inside a transaction.
type Product struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string              `gorm:"column:name;type:text;not null"`
	SKU           *string             `gorm:"column:sku;uniqueIndex"`
	Brand         *string             `gorm:"column:brand"`
	CategoryID    int64               `gorm:"column:category_id;not null;index"`
	SupplierID    *int64              `gorm:"column:supplier_id;index"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	ImageURL      *string             `gorm:"column:image_url"`
	Status        enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Category      *Category           `gorm:"foreignKey:CategoryID"`
	Supplier      *Supplier           `gorm:"foreignKey:SupplierID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import "github.com/shopspring/decimal"

// OrderItem records one deducted product line. PriceAtOrder is the unit
// price read under the row lock during checkout; later catalog price
// changes never touch it.
type OrderItem struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      int64           `gorm:"column:order_id;not null;index"`
	ProductID    int64           `gorm:"column:product_id;not null;index"`
	Quantity     int             `gorm:"column:quantity;not null"`
	PriceAtOrder decimal.Decimal `gorm:"column:price_at_order;type:numeric(10,2);not null"`
	Product      *Product        `gorm:"foreignKey:ProductID"`
}

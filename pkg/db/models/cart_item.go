package models

import "time"

// CartItem is a single product line in a user's cart. One row per
// (user, product) pair; adding the same product again bumps Quantity.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_cart_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
)

// StockRequest is a staff-filed restock request awaiting admin review.
type StockRequest struct {
	ID                int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	StaffID           int64                    `gorm:"column:staff_id;not null;index"`
	ProductID         int64                    `gorm:"column:product_id;not null;index"`
	SupplierID        *int64                   `gorm:"column:supplier_id"`
	RequestedQuantity int                      `gorm:"column:requested_quantity;not null"`
	Reason            *string                  `gorm:"column:reason"`
	Status            enums.StockRequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Product           *Product                 `gorm:"foreignKey:ProductID"`
	Supplier          *Supplier                `gorm:"foreignKey:SupplierID"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
)

// Order is the immutable header produced by checkout. TotalAmount is a
// snapshot of the sum of line subtotals at creation and never recomputed.
type Order struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          *int64              `gorm:"column:user_id;index"`
	StaffID         *int64              `gorm:"column:staff_id;index"`
	TransactionCode string              `gorm:"column:transaction_code;type:text;not null;uniqueIndex"`
	PaymentType     enums.PaymentType   `gorm:"column:payment_type;type:text;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	OrderStatus     enums.OrderStatus   `gorm:"column:order_status;type:text;not null;default:'pending'"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

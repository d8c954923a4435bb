package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem binds exactly one egg unit to an order. The unique index on
// egg_unit_id is the at-most-once sale guarantee at the storage layer.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	EggUnitID uuid.UUID       `gorm:"column:egg_unit_id;type:uuid;not null;uniqueIndex:idx_order_items_egg_unit_id"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// Order is a buyer purchase against a single seller listing.
type Order struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode string            `gorm:"column:order_code;not null;uniqueIndex"`
	BuyerID   uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID  uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	Grade     enums.EggGrade    `gorm:"column:grade;type:text;not null"`
	Quantity  int               `gorm:"column:quantity;not null"`
	Total     decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SnapToken *string           `gorm:"column:snap_token"`
	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

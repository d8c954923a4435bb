package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// EggUnit is one physical egg tracked from scan to sale. The composite index
// backs FIFO claims per owner and grade.
type EggUnit struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index:idx_egg_units_claim,priority:1"`
	Grade       enums.EggGrade   `gorm:"column:grade;type:text;not null;index:idx_egg_units_claim,priority:2"`
	Status      enums.UnitStatus `gorm:"column:status;type:text;not null;default:'available';index:idx_egg_units_claim,priority:3"`
	ListedPrice *decimal.Decimal `gorm:"column:listed_price;type:numeric(12,2)"`
	Confidence  *float64         `gorm:"column:confidence"`
	Attributes  pq.StringArray   `gorm:"column:attributes;type:text[]"`
	ImagePath   *string          `gorm:"column:image_path"`
	ScannedAt   time.Time        `gorm:"column:scanned_at;not null;index:idx_egg_units_claim,priority:4"`
	ListedAt    *time.Time       `gorm:"column:listed_at"`
	SoldOrderID *uuid.UUID       `gorm:"column:sold_order_id;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

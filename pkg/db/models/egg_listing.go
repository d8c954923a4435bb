package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// EggListing is the catalog aggregate for one seller and grade. StockEggs is
// always recomputed from the ledger, never adjusted incrementally.
type EggListing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:idx_egg_listings_seller_grade,priority:1"`
	Grade       enums.EggGrade      `gorm:"column:grade;type:text;not null;uniqueIndex:idx_egg_listings_seller_grade,priority:2"`
	StockEggs   int                 `gorm:"column:stock_eggs;not null;default:0"`
	PricePerEgg decimal.Decimal     `gorm:"column:price_per_egg;type:numeric(12,2);not null"`
	Status      enums.ListingStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

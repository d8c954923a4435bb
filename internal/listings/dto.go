package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// SaveListingInput captures the seller's publish request.
type SaveListingInput struct {
	SellerID    uuid.UUID       `json:"-"`
	Grade       enums.EggGrade  `json:"grade" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	PricePerEgg decimal.Decimal `json:"price_per_egg" validate:"required"`
}

// ListingView is the API representation of one listing aggregate.
type ListingView struct {
	ID          uuid.UUID           `json:"id"`
	SellerID    uuid.UUID           `json:"seller_id"`
	Grade       enums.EggGrade      `json:"grade"`
	StockEggs   int                 `json:"stock_eggs"`
	PricePerEgg decimal.Decimal     `json:"price_per_egg"`
	Status      enums.ListingStatus `json:"status"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SellerCatalog groups one seller's active listings for the catalog page.
type SellerCatalog struct {
	SellerID   uuid.UUID     `json:"seller_id"`
	SellerName string        `json:"seller_name"`
	Code       string        `json:"code"`
	Listings   []ListingView `json:"listings"`
}

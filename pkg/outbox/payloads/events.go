package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// UnitScannedEvent records a new egg entering the ledger.
type UnitScannedEvent struct {
	UnitID     uuid.UUID      `json:"unit_id"`
	OwnerID    uuid.UUID      `json:"owner_id"`
	Grade      enums.EggGrade `json:"grade"`
	Confidence *float64       `json:"confidence,omitempty"`
	ScannedAt  time.Time      `json:"scanned_at"`
}

// ListingUpdatedEvent is emitted once per successful publish or republish.
type ListingUpdatedEvent struct {
	ListingID   uuid.UUID           `json:"listing_id"`
	SellerID    uuid.UUID           `json:"seller_id"`
	Grade       enums.EggGrade      `json:"grade"`
	StockEggs   int                 `json:"stock_eggs"`
	PricePerEgg decimal.Decimal     `json:"price_per_egg"`
	Status      enums.ListingStatus `json:"status"`
	Repriced    bool                `json:"repriced"`
}

// ListingDelistedEvent signals that a listing dropped to zero stock.
type ListingDelistedEvent struct {
	ListingID uuid.UUID      `json:"listing_id"`
	SellerID  uuid.UUID      `json:"seller_id"`
	Grade     enums.EggGrade `json:"grade"`
}

// OrderCreatedEvent signals a committed order with its claimed units.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	OrderCode string            `json:"order_code"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	SellerID  uuid.UUID         `json:"seller_id"`
	Grade     enums.EggGrade    `json:"grade"`
	Quantity  int               `json:"quantity"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
}

// OrderPaidEvent reports a settlement callback moving the order to a paid state.
type OrderPaidEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	OrderCode string            `json:"order_code"`
	Status    enums.OrderStatus `json:"status"`
	PaidAt    time.Time         `json:"paid_at"`
}

// SnapTokenIssuedEvent confirms the payment gateway session for an order.
type SnapTokenIssuedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
}

// SnapTokenMissingEvent flags an order left without a payment session.
type SnapTokenMissingEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	Reason    string    `json:"reason"`
}

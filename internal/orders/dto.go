package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radityapw/eggmart-backend/pkg/enums"
)

// CreateOrderInput carries a buyer's purchase request. Buyer identity comes
// from the access token, never from the body.
type CreateOrderInput struct {
	BuyerID    uuid.UUID `json:"-"`
	BuyerName  string    `json:"-"`
	BuyerEmail string    `json:"-"`
	ListingID  uuid.UUID `json:"listing_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,gt=0"`
	RequestID  string    `json:"request_id" validate:"required"`
}

// OrderView is the API representation of one order.
type OrderView struct {
	ID        uuid.UUID         `json:"id"`
	OrderCode string            `json:"order_code"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	SellerID  uuid.UUID         `json:"seller_id"`
	Grade     enums.EggGrade    `json:"grade"`
	Quantity  int               `json:"quantity"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	SnapToken *string           `json:"snap_token,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// HistoryPage is one cursor page of order history.
type HistoryPage struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/internal/listings"
	"github.com/radityapw/eggmart-backend/pkg/config"
	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
	"github.com/radityapw/eggmart-backend/pkg/metrics"
	"github.com/radityapw/eggmart-backend/pkg/midtrans"
	"github.com/radityapw/eggmart-backend/pkg/outbox"
	"github.com/radityapw/eggmart-backend/pkg/outbox/payloads"
	"github.com/radityapw/eggmart-backend/pkg/pagination"
	"github.com/radityapw/eggmart-backend/pkg/redis"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type snapGateway interface {
	CreateSnapSession(ctx context.Context, params midtrans.SnapSessionParams) (*midtrans.SnapSession, error)
}

// Service runs order creation and history reads.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	BuyerHistory(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*HistoryPage, error)
	SellerHistory(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	listings listings.Repository
	ledger   ledger.Repository
	outbox   outboxPublisher
	idem     redis.IdempotencyStore
	gateway  snapGateway
	metrics  *metrics.OrderMetrics
	cfg      config.OrdersConfig
	logg     *logger.Logger
}

// NewService builds the order engine.
func NewService(
	tx txRunner,
	repo Repository,
	listingsRepo listings.Repository,
	ledgerRepo ledger.Repository,
	publisher outboxPublisher,
	idem redis.IdempotencyStore,
	gateway snapGateway,
	orderMetrics *metrics.OrderMetrics,
	cfg config.OrdersConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if listingsRepo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("snap gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		listings: listingsRepo,
		ledger:   ledgerRepo,
		outbox:   publisher,
		idem:     idem,
		gateway:  gateway,
		metrics:  orderMetrics,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// CreateOrder claims listed eggs FIFO, writes the order atomically with the
// stock recount, then asks the payment gateway for a Snap session after the
// commit. A gateway failure leaves the committed order without a token.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	start := time.Now()
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if strings.TrimSpace(input.RequestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	// The reservation is scoped to the buyer so two buyers can reuse the
	// same client-generated id without colliding.
	idemKey := s.idem.IdempotencyKey("orders", input.BuyerID.String()+":"+input.RequestID)
	acquired, err := s.idem.SetNX(ctx, idemKey, "1", s.cfg.IdempotencyTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency reservation")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "request id already used")
	}

	var order models.Order
	var grade enums.EggGrade
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listingRepo := s.listings.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)
		ordersRepo := s.repo.WithTx(tx)

		listing, err := listingRepo.FindByIDForUpdate(ctx, input.ListingID)
		if err != nil {
			return err
		}
		// an inactive listing is indistinguishable from a missing one to the buyer
		if listing == nil || listing.Status != enums.ListingStatusActive {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		grade = listing.Grade
		if listing.StockEggs < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough eggs in stock").
				WithDetails(map[string]any{
					"available": listing.StockEggs,
					"requested": input.Quantity,
				})
		}

		orderID := uuid.New()
		units, err := ledgerRepo.ClaimForSale(ctx, listing.SellerID, listing.Grade, listing.PricePerEgg, input.Quantity, orderID)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(units))
		for _, unit := range units {
			items = append(items, models.OrderItem{
				EggUnitID: unit.ID,
				Price:     listing.PricePerEgg,
			})
		}
		order = models.Order{
			ID:        orderID,
			OrderCode: s.generateOrderCode(),
			BuyerID:   input.BuyerID,
			SellerID:  listing.SellerID,
			Grade:     listing.Grade,
			Quantity:  input.Quantity,
			Total:     listing.PricePerEgg.Mul(decimal.NewFromInt(int64(input.Quantity))),
			Status:    enums.OrderStatusPending,
			Items:     items,
		}
		if err := ordersRepo.Create(ctx, &order); err != nil {
			return err
		}

		remaining, err := ledgerRepo.CountListed(ctx, listing.SellerID, listing.Grade, listing.PricePerEgg)
		if err != nil {
			return err
		}
		if err := listingRepo.RefreshStock(ctx, listing.ID, int(remaining)); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: string(enums.UserRoleBuyer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:   order.ID,
				OrderCode: order.OrderCode,
				BuyerID:   order.BuyerID,
				SellerID:  order.SellerID,
				Grade:     order.Grade,
				Quantity:  order.Quantity,
				Total:     order.Total,
				Status:    order.Status,
			},
		})
	})
	if txErr != nil {
		// A failed attempt may be retried with the same request id.
		if delErr := s.idem.Del(ctx, idemKey); delErr != nil {
			s.logg.Error(ctx, "release idempotency reservation", delErr)
		}
		if typed := pkgerrors.As(txErr); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.metrics.IncStockRejected(string(grade))
		}
		return nil, txErr
	}

	s.metrics.IncCreated(string(grade))
	s.metrics.ObserveCreateDuration(time.Since(start))

	view := toOrderView(order)
	s.issueSnapToken(ctx, &order, input, &view)

	logCtx := s.logg.WithOrderCode(ctx, order.OrderCode)
	s.logg.Info(logCtx, "order created")
	return &view, nil
}

// issueSnapToken runs after the commit. Failure is logged and swallowed so
// the buyer keeps the committed order either way.
func (s *service) issueSnapToken(ctx context.Context, order *models.Order, input CreateOrderInput, view *OrderView) {
	session, err := s.gateway.CreateSnapSession(ctx, midtrans.SnapSessionParams{
		OrderCode:     order.OrderCode,
		GrossAmount:   order.Total.Round(0).IntPart(),
		CustomerName:  input.BuyerName,
		CustomerEmail: input.BuyerEmail,
		Items: []midtrans.SnapItem{{
			ID:       order.Grade.String(),
			Price:    order.Items[0].Price.Round(0).IntPart(),
			Quantity: order.Quantity,
			Name:     "Telur grade " + order.Grade.String(),
		}},
	})
	if err != nil {
		s.metrics.IncSnapFailed()
		s.logg.Error(s.logg.WithOrderCode(ctx, order.OrderCode), "create snap session", err)
		s.recordSnapOutcome(ctx, order, enums.EventSnapTokenMissing, err.Error())
		return
	}

	if err := s.repo.UpdateSnapToken(ctx, order.ID, session.Token); err != nil {
		s.metrics.IncSnapFailed()
		s.logg.Error(s.logg.WithOrderCode(ctx, order.OrderCode), "persist snap token", err)
		s.recordSnapOutcome(ctx, order, enums.EventSnapTokenMissing, "token obtained but not persisted")
		return
	}
	token := session.Token
	view.SnapToken = &token
	s.recordSnapOutcome(ctx, order, enums.EventSnapTokenIssued, "")
}

func (s *service) recordSnapOutcome(ctx context.Context, order *models.Order, eventType enums.OutboxEventType, reason string) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var data any
		if eventType == enums.EventSnapTokenIssued {
			data = payloads.SnapTokenIssuedEvent{OrderID: order.ID, OrderCode: order.OrderCode}
		} else {
			data = payloads.SnapTokenMissingEvent{OrderID: order.ID, OrderCode: order.OrderCode, Reason: reason}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          data,
		})
	})
	if err != nil {
		s.logg.Error(ctx, "record snap outcome", err)
	}
}

func (s *service) BuyerHistory(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	rows, cursor, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, err
	}
	return toHistoryPage(rows, cursor), nil
}

func (s *service) SellerHistory(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	rows, cursor, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, err
	}
	return toHistoryPage(rows, cursor), nil
}

func (s *service) generateOrderCode() string {
	prefix := s.cfg.CodePrefix
	if prefix == "" {
		prefix = "EGG"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().Unix(), suffix)
}

func toHistoryPage(rows []models.Order, cursor *pagination.Cursor) *HistoryPage {
	page := &HistoryPage{Orders: make([]OrderView, 0, len(rows))}
	for _, row := range rows {
		page.Orders = append(page.Orders, toOrderView(row))
	}
	if cursor != nil {
		page.NextCursor = pagination.EncodeCursor(*cursor)
	}
	return page
}

func toOrderView(order models.Order) OrderView {
	return OrderView{
		ID:        order.ID,
		OrderCode: order.OrderCode,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Grade:     order.Grade,
		Quantity:  order.Quantity,
		Total:     order.Total,
		Status:    order.Status,
		SnapToken: order.SnapToken,
		CreatedAt: order.CreatedAt,
	}
}

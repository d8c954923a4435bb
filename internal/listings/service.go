package listings

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
	"github.com/radityapw/eggmart-backend/pkg/outbox"
	"github.com/radityapw/eggmart-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service publishes and serves listing aggregates.
type Service interface {
	SaveListing(ctx context.Context, input SaveListingInput) (*ListingView, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingView, error)
	Catalog(ctx context.Context) ([]SellerCatalog, error)
	SellerDetail(ctx context.Context, sellerID uuid.UUID) (*SellerCatalog, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger ledger.Repository
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the listings service.
func NewService(
	tx txRunner,
	repo Repository,
	ledgerRepo ledger.Repository,
	publisher outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		ledger: ledgerRepo,
		outbox: publisher,
		logg:   logg,
	}, nil
}

// SaveListing publishes quantity more eggs at the given price. Stock is always
// recomputed from the ledger, and a price change moves every listed unit of
// the grade to the new price so the grade keeps a single price.
func (s *service) SaveListing(ctx context.Context, input SaveListingInput) (*ListingView, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if !input.Grade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown egg grade")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.PricePerEgg.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per egg must be positive")
	}

	var view ListingView
	var repriced bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		existing, err := repo.FindBySellerGrade(ctx, input.SellerID, input.Grade)
		if err != nil {
			return err
		}
		repriced = existing != nil && !existing.PricePerEgg.Equal(input.PricePerEgg)

		if _, err := ledgerRepo.ClaimForListing(ctx, input.SellerID, input.Grade, input.Quantity, input.PricePerEgg); err != nil {
			return err
		}
		if repriced {
			if _, err := ledgerRepo.RepriceListed(ctx, input.SellerID, input.Grade, input.PricePerEgg); err != nil {
				return err
			}
		}

		total, err := ledgerRepo.CountListed(ctx, input.SellerID, input.Grade, input.PricePerEgg)
		if err != nil {
			return err
		}

		listing := models.EggListing{
			SellerID:    input.SellerID,
			Grade:       input.Grade,
			StockEggs:   int(total),
			PricePerEgg: input.PricePerEgg,
			Status:      enums.ListingStatusActive,
		}
		if existing != nil {
			listing.ID = existing.ID
			listing.CreatedAt = existing.CreatedAt
		}
		if err := repo.Upsert(ctx, &listing); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingUpdated,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: input.SellerID, Role: string(enums.UserRoleSeller)},
			Data: payloads.ListingUpdatedEvent{
				ListingID:   listing.ID,
				SellerID:    listing.SellerID,
				Grade:       listing.Grade,
				StockEggs:   listing.StockEggs,
				PricePerEgg: listing.PricePerEgg,
				Status:      listing.Status,
				Repriced:    repriced,
			},
		}); err != nil {
			return err
		}

		view = toView(listing)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"seller_id":  input.SellerID.String(),
		"grade":      string(input.Grade),
		"stock_eggs": view.StockEggs,
		"repriced":   repriced,
	})
	s.logg.Info(logCtx, "listing saved")
	return &view, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingView, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	views := make([]ListingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	return views, nil
}

// Catalog returns every seller with active listings, listings grouped under
// the seller and ordered by grade.
func (s *service) Catalog(ctx context.Context) ([]SellerCatalog, error) {
	sellers, err := s.repo.ActiveSellers(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	bySeller := make(map[uuid.UUID][]ListingView, len(sellers))
	for _, row := range active {
		bySeller[row.SellerID] = append(bySeller[row.SellerID], toView(row))
	}

	catalog := make([]SellerCatalog, 0, len(sellers))
	for _, seller := range sellers {
		catalog = append(catalog, SellerCatalog{
			SellerID:   seller.ID,
			SellerName: seller.Name,
			Code:       sellerCode(seller.Name),
			Listings:   bySeller[seller.ID],
		})
	}
	return catalog, nil
}

// SellerDetail returns one seller's storefront: the seller row plus their
// active listings ordered by grade.
func (s *service) SellerDetail(ctx context.Context, sellerID uuid.UUID) (*SellerCatalog, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	seller, err := s.repo.FindSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	active := make([]ListingView, 0, len(rows))
	for _, row := range rows {
		if row.Status != enums.ListingStatusActive {
			continue
		}
		active = append(active, toView(row))
	}
	return &SellerCatalog{
		SellerID:   seller.ID,
		SellerName: seller.Name,
		Code:       sellerCode(seller.Name),
		Listings:   active,
	}, nil
}

// sellerCode derives the short display code shown next to the seller's name.
func sellerCode(name string) string {
	trimmed := strings.TrimSpace(name)
	runes := []rune(trimmed)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func toView(listing models.EggListing) ListingView {
	return ListingView{
		ID:          listing.ID,
		SellerID:    listing.SellerID,
		Grade:       listing.Grade,
		StockEggs:   listing.StockEggs,
		PricePerEgg: listing.PricePerEgg,
		Status:      listing.Status,
		UpdatedAt:   listing.UpdatedAt,
	}
}

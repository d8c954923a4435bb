package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/internal/listings"
	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
)

const (
	bestGradesWindow = 30 * 24 * time.Hour
	salesSeriesDays  = 7
	recentOrderCount = 5
)

// RecentOrder is one entry of the recent-orders widget.
type RecentOrder struct {
	ID        uuid.UUID         `json:"id"`
	OrderCode string            `json:"order_code"`
	Grade     enums.EggGrade    `json:"grade"`
	Quantity  int               `json:"quantity"`
	Total     string            `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// View is the full seller dashboard payload.
type View struct {
	AvailableByGrade []ledger.GradeCount    `json:"available_by_grade"`
	Listings         []listings.ListingView `json:"listings"`
	Today            TodayCard              `json:"today"`
	BestGrades       []GradeSales           `json:"best_grades"`
	SalesSeries      []DailySales           `json:"sales_series"`
	RecentOrders     []RecentOrder          `json:"recent_orders"`
}

// Service composes the seller dashboard from ledger, listings and orders.
type Service interface {
	SellerDashboard(ctx context.Context, sellerID uuid.UUID) (*View, error)
}

type listingReader interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]listings.ListingView, error)
}

type service struct {
	repo     Repository
	ledger   ledger.Repository
	listings listingReader
	now      func() time.Time
}

// NewService builds the dashboard service.
func NewService(repo Repository, ledgerRepo ledger.Repository, listingsSvc listingReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if listingsSvc == nil {
		return nil, fmt.Errorf("listings reader required")
	}
	return &service{repo: repo, ledger: ledgerRepo, listings: listingsSvc, now: time.Now}, nil
}

func (s *service) SellerDashboard(ctx context.Context, sellerID uuid.UUID) (*View, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	available, err := s.ledger.AvailableByGrade(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	sellerListings, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.TodayCard(ctx, sellerID, dayStart)
	if err != nil {
		return nil, err
	}
	best, err := s.repo.BestGrades(ctx, sellerID, now.Add(-bestGradesWindow))
	if err != nil {
		return nil, err
	}
	series, err := s.repo.SalesSeries(ctx, sellerID, dayStart.AddDate(0, 0, -(salesSeriesDays-1)))
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentOrders(ctx, sellerID, recentOrderCount)
	if err != nil {
		return nil, err
	}

	return &View{
		AvailableByGrade: available,
		Listings:         sellerListings,
		Today:            *today,
		BestGrades:       best,
		SalesSeries:      series,
		RecentOrders:     toRecentOrders(recent),
	}, nil
}

func toRecentOrders(rows []models.Order) []RecentOrder {
	out := make([]RecentOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, RecentOrder{
			ID:        row.ID,
			OrderCode: row.OrderCode,
			Grade:     row.Grade,
			Quantity:  row.Quantity,
			Total:     row.Total.StringFixed(2),
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}

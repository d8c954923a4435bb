package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
)

// GradeSales aggregates sold quantity and revenue per grade.
type GradeSales struct {
	Grade    enums.EggGrade  `gorm:"column:grade" json:"grade"`
	EggsSold int             `gorm:"column:eggs_sold" json:"eggs_sold"`
	Revenue  decimal.Decimal `gorm:"column:revenue" json:"revenue"`
}

// DailySales is one point of the sales series.
type DailySales struct {
	Day      string          `gorm:"column:day" json:"day"`
	EggsSold int             `gorm:"column:eggs_sold" json:"eggs_sold"`
	Revenue  decimal.Decimal `gorm:"column:revenue" json:"revenue"`
}

// TodayCard summarizes the seller's completed sales since midnight.
type TodayCard struct {
	EggsSold        int `json:"eggs_sold"`
	OrdersCompleted int `json:"orders_completed"`
}

// Repository serves the read-only order aggregations behind the dashboard.
// Revenue only counts orders the gateway confirmed (paid or settlement).
type Repository interface {
	TodayCard(ctx context.Context, sellerID uuid.UUID, dayStart time.Time) (*TodayCard, error)
	BestGrades(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]GradeSales, error)
	SalesSeries(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]DailySales, error)
	RecentOrders(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dashboard repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) TodayCard(ctx context.Context, sellerID uuid.UUID, dayStart time.Time) (*TodayCard, error) {
	var row struct {
		EggsSold        *int `gorm:"column:eggs_sold"`
		OrdersCompleted int  `gorm:"column:orders_completed"`
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(quantity) AS eggs_sold, COUNT(*) AS orders_completed").
		Where("seller_id = ?", sellerID).
		Where("status IN ?", enums.PaidStatuses()).
		Where("created_at >= ?", dayStart).
		Scan(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "today card")
	}
	card := &TodayCard{OrdersCompleted: row.OrdersCompleted}
	if row.EggsSold != nil {
		card.EggsSold = *row.EggsSold
	}
	return card, nil
}

func (r *repository) BestGrades(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]GradeSales, error) {
	var rows []GradeSales
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("grade, SUM(quantity) AS eggs_sold, SUM(total) AS revenue").
		Where("seller_id = ?", sellerID).
		Where("status IN ?", enums.PaidStatuses()).
		Where("created_at >= ?", since).
		Group("grade").
		Order("eggs_sold DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "best grades")
	}
	return rows, nil
}

func (r *repository) SalesSeries(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("DATE(created_at) AS day, SUM(quantity) AS eggs_sold, SUM(total) AS revenue").
		Where("seller_id = ?", sellerID).
		Where("status IN ?", enums.PaidStatuses()).
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sales series")
	}
	return rows, nil
}

func (r *repository) RecentOrders(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent orders")
	}
	return rows, nil
}

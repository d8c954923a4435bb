package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/internal/listings"
	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
)

type stubListings struct {
	views []listings.ListingView
}

func (s stubListings) ListBySeller(_ context.Context, _ uuid.UUID) ([]listings.ListingView, error) {
	return s.views, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EggUnit{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedOrder(t *testing.T, db *gorm.DB, sellerID uuid.UUID, grade enums.EggGrade, quantity int, status enums.OrderStatus, createdAt time.Time) {
	t.Helper()
	order := models.Order{
		ID:        uuid.New(),
		OrderCode: "EGG-TEST-" + uuid.NewString()[:8],
		BuyerID:   uuid.New(),
		SellerID:  sellerID,
		Grade:     grade,
		Quantity:  quantity,
		Total:     decimal.NewFromInt(int64(quantity * 1000)),
		Status:    status,
		CreatedAt: createdAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func seedAvailableUnits(t *testing.T, db *gorm.DB, ownerID uuid.UUID, grade enums.EggGrade, n int) {
	t.Helper()
	repo := ledger.NewRepository(db)
	for i := 0; i < n; i++ {
		unit := &models.EggUnit{OwnerID: ownerID, Grade: grade}
		if err := repo.RecordScan(context.Background(), unit); err != nil {
			t.Fatalf("seed unit: %v", err)
		}
	}
}

func TestSellerDashboard(t *testing.T) {
	db := newTestDB(t)
	seller := uuid.New()
	now := time.Date(2026, 4, 20, 15, 0, 0, 0, time.UTC)

	seedAvailableUnits(t, db, seller, enums.EggGradeA, 3)
	seedAvailableUnits(t, db, seller, enums.EggGradeB, 1)

	// Two completed sales today, one still pending, one from yesterday,
	// one outside the 7-day series but inside the 30-day window.
	seedOrder(t, db, seller, enums.EggGradeA, 4, enums.OrderStatusPaid, now.Add(-2*time.Hour))
	seedOrder(t, db, seller, enums.EggGradeA, 2, enums.OrderStatusSettlement, now.Add(-1*time.Hour))
	seedOrder(t, db, seller, enums.EggGradeB, 5, enums.OrderStatusPending, now.Add(-30*time.Minute))
	seedOrder(t, db, seller, enums.EggGradeB, 3, enums.OrderStatusPaid, now.AddDate(0, 0, -1))
	seedOrder(t, db, seller, enums.EggGradeC, 8, enums.OrderStatusPaid, now.AddDate(0, 0, -20))
	// Another seller's sale never leaks in.
	seedOrder(t, db, uuid.New(), enums.EggGradeA, 9, enums.OrderStatusPaid, now.Add(-1*time.Hour))

	svcIface, err := NewService(NewRepository(db), ledger.NewRepository(db), stubListings{
		views: []listings.ListingView{{Grade: enums.EggGradeA, StockEggs: 6}},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svcIface.(*service).now = func() time.Time { return now }

	view, err := svcIface.SellerDashboard(context.Background(), seller)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	available := map[enums.EggGrade]int{}
	for _, row := range view.AvailableByGrade {
		available[row.Grade] = row.Count
	}
	if available[enums.EggGradeA] != 3 || available[enums.EggGradeB] != 1 {
		t.Fatalf("unexpected availability: %v", available)
	}
	if len(view.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(view.Listings))
	}

	// Pending orders never count as completed sales.
	if view.Today.EggsSold != 6 || view.Today.OrdersCompleted != 2 {
		t.Fatalf("unexpected today card: %+v", view.Today)
	}

	if len(view.BestGrades) != 3 {
		t.Fatalf("expected 3 grades in best grades, got %d", len(view.BestGrades))
	}
	if view.BestGrades[0].Grade != enums.EggGradeC || view.BestGrades[0].EggsSold != 8 {
		t.Fatalf("expected grade C on top with 8 eggs, got %+v", view.BestGrades[0])
	}

	var seriesEggs int
	for _, point := range view.SalesSeries {
		seriesEggs += point.EggsSold
	}
	if len(view.SalesSeries) != 2 {
		t.Fatalf("expected 2 series days, got %d", len(view.SalesSeries))
	}
	if seriesEggs != 9 {
		t.Fatalf("expected 9 eggs across the series, got %d", seriesEggs)
	}

	if len(view.RecentOrders) != 5 {
		t.Fatalf("expected 5 recent orders, got %d", len(view.RecentOrders))
	}
	if view.RecentOrders[0].Status != enums.OrderStatusPending {
		t.Fatalf("expected the newest order first, got %+v", view.RecentOrders[0])
	}
}

func TestSellerDashboardRequiresSeller(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), ledger.NewRepository(db), stubListings{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.SellerDashboard(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected validation error")
	}
}

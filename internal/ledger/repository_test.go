package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EggUnit{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedScans(t *testing.T, repo Repository, ownerID uuid.UUID, grade enums.EggGrade, n int, start time.Time) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		unit := &models.EggUnit{
			OwnerID:   ownerID,
			Grade:     grade,
			ScannedAt: start.Add(time.Duration(i) * time.Second),
		}
		if err := repo.RecordScan(ctx, unit); err != nil {
			t.Fatalf("record scan %d: %v", i, err)
		}
		ids = append(ids, unit.ID)
	}
	return ids
}

func TestRecordScanValidation(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.RecordScan(ctx, nil); err == nil {
		t.Fatal("expected error for nil unit")
	}
	if err := repo.RecordScan(ctx, &models.EggUnit{Grade: enums.EggGradeA}); err == nil {
		t.Fatal("expected error for missing owner")
	}
	if err := repo.RecordScan(ctx, &models.EggUnit{OwnerID: uuid.New(), Grade: "Z"}); err == nil {
		t.Fatal("expected error for invalid grade")
	}

	unit := &models.EggUnit{OwnerID: uuid.New(), Grade: enums.EggGradeA}
	if err := repo.RecordScan(ctx, unit); err != nil {
		t.Fatalf("record scan: %v", err)
	}
	if unit.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if unit.Status != enums.UnitStatusAvailable {
		t.Fatalf("expected available status, got %s", unit.Status)
	}
	if unit.ScannedAt.IsZero() {
		t.Fatal("expected scanned_at to be stamped")
	}
}

func TestClaimForListingFIFO(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	ids := seedScans(t, repo, owner, enums.EggGradeA, 5, start)
	price := decimal.NewFromInt(1000)

	claimed, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 3, price)
	if err != nil {
		t.Fatalf("claim for listing: %v", err)
	}
	if claimed != 3 {
		t.Fatalf("expected 3 claimed, got %d", claimed)
	}

	// The three oldest scans are the ones that moved to listed.
	var listed []models.EggUnit
	if err := db.Where("status = ?", enums.UnitStatusListed).Order("scanned_at ASC").Find(&listed).Error; err != nil {
		t.Fatalf("load listed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 listed units, got %d", len(listed))
	}
	for i, unit := range listed {
		if unit.ID != ids[i] {
			t.Fatalf("expected oldest scans claimed first, position %d got %s want %s", i, unit.ID, ids[i])
		}
		if unit.ListedPrice == nil || !unit.ListedPrice.Equal(price) {
			t.Fatalf("listed price not stamped on unit %s", unit.ID)
		}
		if unit.ListedAt == nil {
			t.Fatalf("listed_at not stamped on unit %s", unit.ID)
		}
	}

	available, err := repo.CountAvailable(ctx, owner, enums.EggGradeA)
	if err != nil {
		t.Fatalf("count available: %v", err)
	}
	if available != 2 {
		t.Fatalf("expected 2 available, got %d", available)
	}
}

func TestClaimForListingInsufficientStock(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()
	seedScans(t, repo, owner, enums.EggGradeB, 2, time.Now())

	_, err := repo.ClaimForListing(ctx, owner, enums.EggGradeB, 5, decimal.NewFromInt(800))
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available"] != 2 {
		t.Fatalf("expected available=2 in details, got %v", details["available"])
	}
}

func TestClaimForListingDoesNotCrossGradeOrOwner(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()
	seedScans(t, repo, owner, enums.EggGradeA, 1, time.Now())
	seedScans(t, repo, owner, enums.EggGradeB, 3, time.Now())
	seedScans(t, repo, other, enums.EggGradeA, 3, time.Now())

	_, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 2, decimal.NewFromInt(1000))
	if err == nil {
		t.Fatal("expected insufficient stock, other grades and owners must not be claimed")
	}
}

func TestRepriceListedConsolidatesPrice(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	seedScans(t, repo, owner, enums.EggGradeA, 4, time.Now())

	oldPrice := decimal.NewFromInt(1000)
	if _, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 4, oldPrice); err != nil {
		t.Fatalf("claim: %v", err)
	}

	newPrice := decimal.NewFromInt(1200)
	updated, err := repo.RepriceListed(ctx, owner, enums.EggGradeA, newPrice)
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if updated != 4 {
		t.Fatalf("expected 4 repriced units, got %d", updated)
	}

	count, err := repo.CountListed(ctx, owner, enums.EggGradeA, newPrice)
	if err != nil {
		t.Fatalf("count listed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected all 4 listed at new price, got %d", count)
	}
	stale, err := repo.CountListed(ctx, owner, enums.EggGradeA, oldPrice)
	if err != nil {
		t.Fatalf("count listed at old price: %v", err)
	}
	if stale != 0 {
		t.Fatalf("expected no units left at old price, got %d", stale)
	}
}

func TestClaimForSaleMarksUnitsSold(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	orderID := uuid.New()
	price := decimal.NewFromInt(1500)

	seedScans(t, repo, owner, enums.EggGradeA, 6, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	if _, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 6, price); err != nil {
		t.Fatalf("claim for listing: %v", err)
	}

	units, err := repo.ClaimForSale(ctx, owner, enums.EggGradeA, price, 4, orderID)
	if err != nil {
		t.Fatalf("claim for sale: %v", err)
	}
	if len(units) != 4 {
		t.Fatalf("expected 4 sold units, got %d", len(units))
	}
	for _, unit := range units {
		if unit.Status != enums.UnitStatusSold {
			t.Fatalf("expected sold status, got %s", unit.Status)
		}
		if unit.SoldOrderID == nil || *unit.SoldOrderID != orderID {
			t.Fatalf("order id not stamped on unit %s", unit.ID)
		}
	}

	remaining, err := repo.CountListed(ctx, owner, enums.EggGradeA, price)
	if err != nil {
		t.Fatalf("count listed: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 listed remaining, got %d", remaining)
	}
}

func TestClaimForSaleInsufficientListed(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()
	price := decimal.NewFromInt(1000)

	seedScans(t, repo, owner, enums.EggGradeA, 3, time.Now())
	if _, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 2, price); err != nil {
		t.Fatalf("claim for listing: %v", err)
	}

	_, err := repo.ClaimForSale(ctx, owner, enums.EggGradeA, price, 3, uuid.New())
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClaimForSaleSequentialContention(t *testing.T) {
	// Two buyers racing for the same stock resolve sequentially inside the
	// database; the second claim must see only what the first one left.
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	price := decimal.NewFromInt(900)

	seedScans(t, repo, owner, enums.EggGradeC, 10, time.Now())
	if _, err := repo.ClaimForListing(ctx, owner, enums.EggGradeC, 10, price); err != nil {
		t.Fatalf("claim for listing: %v", err)
	}

	first, err := repo.ClaimForSale(ctx, owner, enums.EggGradeC, price, 7, uuid.New())
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if len(first) != 7 {
		t.Fatalf("expected 7 sold, got %d", len(first))
	}

	_, err = repo.ClaimForSale(ctx, owner, enums.EggGradeC, price, 7, uuid.New())
	if err == nil {
		t.Fatal("expected second oversized claim to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := repo.ClaimForSale(ctx, owner, enums.EggGradeC, price, 3, uuid.New())
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("expected 3 sold, got %d", len(second))
	}

	// Every unit was sold exactly once.
	seen := map[uuid.UUID]bool{}
	for _, unit := range append(first, second...) {
		if seen[unit.ID] {
			t.Fatalf("unit %s sold twice", unit.ID)
		}
		seen[unit.ID] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct sold units, got %d", len(seen))
	}
}

func TestAvailableByGrade(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	seedScans(t, repo, owner, enums.EggGradeA, 3, time.Now())
	seedScans(t, repo, owner, enums.EggGradeB, 1, time.Now())
	if _, err := repo.ClaimForListing(ctx, owner, enums.EggGradeA, 1, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("claim: %v", err)
	}

	rows, err := repo.AvailableByGrade(ctx, owner)
	if err != nil {
		t.Fatalf("available by grade: %v", err)
	}
	got := map[enums.EggGrade]int{}
	for _, row := range rows {
		got[row.Grade] = row.Count
	}
	if got[enums.EggGradeA] != 2 || got[enums.EggGradeB] != 1 {
		t.Fatalf("unexpected summary: %v", got)
	}
}

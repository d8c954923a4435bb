package scans

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/internal/ledger"
	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
	"github.com/radityapw/eggmart-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB, *outbox.Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EggUnit{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	outboxRepo := outbox.NewRepository(conn)
	svc, err := NewService(gormTxRunner{db: conn}, ledger.NewRepository(conn), outbox.NewService(outboxRepo, logg), logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn, outboxRepo
}

func TestRecordScanPersistsUnit(t *testing.T) {
	svc, db, outboxRepo := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	confidence := 0.93

	view, err := svc.RecordScan(ctx, RecordScanInput{
		OwnerID:    owner,
		Grade:      "A",
		Confidence: &confidence,
		Attributes: []string{"clean", "large"},
		ImagePath:  "scans/2026/04/egg-1.jpg",
	})
	if err != nil {
		t.Fatalf("record scan: %v", err)
	}
	if view.Status != enums.UnitStatusAvailable {
		t.Fatalf("expected available unit, got %s", view.Status)
	}
	if view.ScannedAt.IsZero() {
		t.Fatal("expected scanned_at stamped")
	}

	var unit models.EggUnit
	if err := db.First(&unit, "id = ?", view.UnitID).Error; err != nil {
		t.Fatalf("load unit: %v", err)
	}
	if unit.OwnerID != owner || unit.Grade != enums.EggGradeA {
		t.Fatalf("unexpected unit: %+v", unit)
	}
	if unit.Confidence == nil || *unit.Confidence != confidence {
		t.Fatal("confidence not persisted")
	}
	if unit.ImagePath == nil || *unit.ImagePath != "scans/2026/04/egg-1.jpg" {
		t.Fatal("image path not persisted")
	}
	if len(unit.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(unit.Attributes))
	}

	events, err := outboxRepo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("fetch outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventUnitScanned {
		t.Fatalf("expected one unit_scanned event, got %v", events)
	}
}

func TestRecordScanValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	outOfRange := 1.2

	cases := []struct {
		name  string
		input RecordScanInput
	}{
		{"missing owner", RecordScanInput{Grade: "A"}},
		{"unknown grade", RecordScanInput{OwnerID: uuid.New(), Grade: "Z"}},
		{"confidence out of range", RecordScanInput{OwnerID: uuid.New(), Grade: "A", Confidence: &outOfRange}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordScan(ctx, tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

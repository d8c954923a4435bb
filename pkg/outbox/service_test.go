package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	"github.com/radityapw/eggmart-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, logg), repo
}

func TestEmitStoresEnvelopeInTx(t *testing.T) {
	db := newTestDB(t)
	svc, repo := newTestService(t, db)

	orderID := uuid.New()
	actorID := uuid.New()

	tx := db.Begin()
	err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{UserID: actorID, Role: "buyer"},
		Data:          map[string]any{"order_code": "EGG-1-x", "quantity": 4},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rows))
	}
	row := rows[0]
	if row.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.AggregateID != orderID {
		t.Fatalf("unexpected aggregate id %s", row.AggregateID)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.EventID == "" {
		t.Fatal("expected event id in envelope")
	}
	if envelope.Actor == nil || envelope.Actor.UserID != actorID {
		t.Fatal("actor not preserved in envelope")
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	svc, repo := newTestService(t, db)

	tx := db.Begin()
	if err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventListingUpdated,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Data:          map[string]int{"stock_eggs": 6},
	}); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	tx.Rollback()

	rows, err := repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected rollback to discard the event, got %d rows", len(rows))
	}
}

func TestMarkPublishedAndFailed(t *testing.T) {
	db := newTestDB(t)
	svc, repo := newTestService(t, db)

	tx := db.Begin()
	if err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchUnpublished(10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one unpublished row, got %d err=%v", len(rows), err)
	}
	id := rows[0].ID

	if err := repo.MarkFailed(id, errors.New("publish timeout")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	var failed models.OutboxEvent
	if err := db.First(&failed, "id = ?", id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if failed.AttemptCount != 1 || failed.LastError == nil {
		t.Fatalf("expected attempt count 1 with last error, got %+v", failed)
	}

	if err := repo.MarkPublished(id); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	rows, err = repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("FetchUnpublished: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("published event should no longer be fetched, got %d", len(rows))
	}
}

func TestFetchPublishableSkipsExhaustedEvents(t *testing.T) {
	db := newTestDB(t)
	svc, repo := newTestService(t, db)

	tx := db.Begin()
	if err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventListingUpdated,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
	}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchPublishable(10, 2)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one publishable row, got %d err=%v", len(rows), err)
	}
	id := rows[0].ID

	for i := 0; i < 2; i++ {
		if err := repo.MarkFailed(id, errors.New("publish timeout")); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}

	rows, err = repo.FetchPublishable(10, 2)
	if err != nil {
		t.Fatalf("FetchPublishable: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("exhausted event should be skipped, got %d", len(rows))
	}

	rows, err = repo.FetchUnpublished(10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("exhausted event should still be visible to FetchUnpublished, got %d err=%v", len(rows), err)
	}
}

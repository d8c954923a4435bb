package scans

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
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

// RecordScanInput carries one predictor result for a freshly scanned egg.
// The grading model itself runs outside this service.
type RecordScanInput struct {
	OwnerID    uuid.UUID `json:"-"`
	Grade      string    `json:"grade" validate:"required"`
	Confidence *float64  `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Attributes []string  `json:"attributes"`
	ImagePath  string    `json:"image_path"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// ScanView is the API representation of one recorded unit.
type ScanView struct {
	UnitID     uuid.UUID        `json:"unit_id"`
	OwnerID    uuid.UUID        `json:"owner_id"`
	Grade      enums.EggGrade   `json:"grade"`
	Status     enums.UnitStatus `json:"status"`
	Confidence *float64         `json:"confidence,omitempty"`
	ScannedAt  time.Time        `json:"scanned_at"`
}

// Service records predictor output into the unit ledger.
type Service interface {
	RecordScan(ctx context.Context, input RecordScanInput) (*ScanView, error)
}

type service struct {
	tx     txRunner
	ledger ledger.Repository
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the scan intake service.
func NewService(tx txRunner, ledgerRepo ledger.Repository, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
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
	return &service{tx: tx, ledger: ledgerRepo, outbox: publisher, logg: logg}, nil
}

func (s *service) RecordScan(ctx context.Context, input RecordScanInput) (*ScanView, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	grade, err := enums.ParseEggGrade(input.Grade)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown egg grade")
	}
	if input.Confidence != nil && (*input.Confidence < 0 || *input.Confidence > 1) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confidence must be between 0 and 1")
	}

	unit := models.EggUnit{
		OwnerID:    input.OwnerID,
		Grade:      grade,
		Confidence: input.Confidence,
		Attributes: pq.StringArray(input.Attributes),
		ScannedAt:  input.ScannedAt,
	}
	if input.ImagePath != "" {
		path := input.ImagePath
		unit.ImagePath = &path
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.WithTx(tx).RecordScan(ctx, &unit); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUnitScanned,
			AggregateType: enums.AggregateEggUnit,
			AggregateID:   unit.ID,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID, Role: string(enums.UserRoleSeller)},
			Data: payloads.UnitScannedEvent{
				UnitID:     unit.ID,
				OwnerID:    unit.OwnerID,
				Grade:      unit.Grade,
				Confidence: unit.Confidence,
				ScannedAt:  unit.ScannedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"unit_id": unit.ID.String(),
		"grade":   string(unit.Grade),
	})
	s.logg.Info(logCtx, "egg scan recorded")

	return &ScanView{
		UnitID:     unit.ID,
		OwnerID:    unit.OwnerID,
		Grade:      unit.Grade,
		Status:     unit.Status,
		Confidence: unit.Confidence,
		ScannedAt:  unit.ScannedAt,
	}, nil
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
)

// GradeCount is one row of the per-grade availability summary.
type GradeCount struct {
	Grade enums.EggGrade `gorm:"column:grade"`
	Count int            `gorm:"column:count"`
}

// Repository owns all state transitions on egg units. Claims are FIFO and
// happen inside the caller's transaction so listing and order writes commit
// atomically with the unit updates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	RecordScan(ctx context.Context, unit *models.EggUnit) error
	ClaimForListing(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, quantity int, price decimal.Decimal) (int, error)
	RepriceListed(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal) (int64, error)
	ClaimForSale(ctx context.Context, sellerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal, quantity int, orderID uuid.UUID) ([]models.EggUnit, error)
	CountAvailable(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade) (int64, error)
	CountListed(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal) (int64, error)
	AvailableByGrade(ctx context.Context, ownerID uuid.UUID) ([]GradeCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository backed by the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// RecordScan appends a new available unit to the ledger.
func (r *repository) RecordScan(ctx context.Context, unit *models.EggUnit) error {
	if unit == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if unit.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if !unit.Grade.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid egg grade")
	}
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	if unit.ScannedAt.IsZero() {
		unit.ScannedAt = time.Now()
	}
	unit.Status = enums.UnitStatusAvailable
	if err := r.db.WithContext(ctx).Create(unit).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record scan")
	}
	return nil
}

// ClaimForListing moves up to quantity available units to listed at the given
// price, oldest scans first. Returns the number of units claimed.
func (r *repository) ClaimForListing(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, quantity int, price decimal.Decimal) (int, error) {
	if quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	ids, err := r.selectUnitIDs(ctx, ownerID, grade, enums.UnitStatusAvailable, nil, quantity, "scanned_at ASC, id ASC")
	if err != nil {
		return 0, err
	}
	if len(ids) < quantity {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough available eggs to list").
			WithDetails(map[string]any{"available": len(ids), "requested": quantity})
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("id IN ?", ids).
		Where("status = ?", enums.UnitStatusAvailable).
		Updates(map[string]any{
			"status":       enums.UnitStatusListed,
			"listed_price": price,
			"listed_at":    now,
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "claim units for listing")
	}
	return int(res.RowsAffected), nil
}

// RepriceListed updates the listed price for every listed unit of the grade so
// a seller's grade always carries a single price.
func (r *repository) RepriceListed(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("owner_id = ? AND grade = ? AND status = ?", ownerID, grade, enums.UnitStatusListed).
		Update("listed_price", price)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reprice listed units")
	}
	return res.RowsAffected, nil
}

// ClaimForSale moves exactly quantity listed units at the given price to sold,
// stamping the order that consumed them. Oldest listings go first.
func (r *repository) ClaimForSale(ctx context.Context, sellerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal, quantity int, orderID uuid.UUID) ([]models.EggUnit, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	ids, err := r.selectUnitIDs(ctx, sellerID, grade, enums.UnitStatusListed, &price, quantity, "listed_at ASC, id ASC")
	if err != nil {
		return nil, err
	}
	if len(ids) < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough listed eggs to fulfill the order").
			WithDetails(map[string]any{"available": len(ids), "requested": quantity})
	}

	res := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("id IN ?", ids).
		Where("status = ?", enums.UnitStatusListed).
		Updates(map[string]any{
			"status":        enums.UnitStatusSold,
			"sold_order_id": orderID,
		})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "claim units for sale")
	}
	if res.RowsAffected != int64(quantity) {
		// A concurrent writer raced us between select and update.
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listed units changed while claiming").
			WithDetails(map[string]any{"claimed": res.RowsAffected, "requested": quantity})
	}

	var units []models.EggUnit
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("listed_at ASC, id ASC").
		Find(&units).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load claimed units")
	}
	return units, nil
}

// CountAvailable returns the number of unlisted units for the grade.
func (r *repository) CountAvailable(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("owner_id = ? AND grade = ? AND status = ?", ownerID, grade, enums.UnitStatusAvailable).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count available units")
	}
	return count, nil
}

// CountListed returns the number of listed units for the grade at the price.
func (r *repository) CountListed(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, price decimal.Decimal) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("owner_id = ? AND grade = ? AND status = ? AND listed_price = ?", ownerID, grade, enums.UnitStatusListed, price).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count listed units")
	}
	return count, nil
}

// AvailableByGrade summarizes unlisted stock per grade for dashboards.
func (r *repository) AvailableByGrade(ctx context.Context, ownerID uuid.UUID) ([]GradeCount, error) {
	var rows []GradeCount
	err := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Select("grade, COUNT(*) AS count").
		Where("owner_id = ? AND status = ?", ownerID, enums.UnitStatusAvailable).
		Group("grade").
		Order("grade ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize available units")
	}
	return rows, nil
}

func (r *repository) selectUnitIDs(ctx context.Context, ownerID uuid.UUID, grade enums.EggGrade, status enums.UnitStatus, price *decimal.Decimal, limit int, order string) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&models.EggUnit{}).
		Where("owner_id = ? AND grade = ? AND status = ?", ownerID, grade, status)
	if price != nil {
		q = q.Where("listed_price = ?", *price)
	}
	// Row locks are a Postgres capability; SQLite serializes writers instead.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uuid.UUID
	if err := q.Order(order).Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select claimable units")
	}
	return ids, nil
}

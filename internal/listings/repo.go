package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/radityapw/eggmart-backend/pkg/db/models"
	"github.com/radityapw/eggmart-backend/pkg/enums"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
)

// Repository exposes listing aggregate persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.EggListing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EggListing, error)
	FindBySellerGrade(ctx context.Context, sellerID uuid.UUID, grade enums.EggGrade) (*models.EggListing, error)
	Upsert(ctx context.Context, listing *models.EggListing) error
	RefreshStock(ctx context.Context, id uuid.UUID, stock int) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.EggListing, error)
	ListActive(ctx context.Context) ([]models.EggListing, error)
	ActiveSellers(ctx context.Context) ([]models.User, error)
	FindSeller(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository backed by the provided DB handle.
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EggListing, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate locks the listing row for the rest of the transaction so
// concurrent orders against the same listing serialize.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EggListing, error) {
	return r.findByID(ctx, id, true)
}

func (r *repository) findByID(ctx context.Context, id uuid.UUID, lock bool) (*models.EggListing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	q := r.db.WithContext(ctx)
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var listing models.EggListing
	if err := q.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing")
	}
	return &listing, nil
}

func (r *repository) FindBySellerGrade(ctx context.Context, sellerID uuid.UUID, grade enums.EggGrade) (*models.EggListing, error) {
	var listing models.EggListing
	err := r.db.WithContext(ctx).
		First(&listing, "seller_id = ? AND grade = ?", sellerID, grade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load listing by seller and grade")
	}
	return &listing, nil
}

// Upsert creates or replaces the single row per seller and grade.
func (r *repository) Upsert(ctx context.Context, listing *models.EggListing) error {
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing is required")
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "seller_id"}, {Name: "grade"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stock_eggs", "price_per_egg", "status", "updated_at",
		}),
	}).Create(listing).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert listing")
	}
	return nil
}

// RefreshStock writes the recomputed stock and flips the listing inactive at zero.
func (r *repository) RefreshStock(ctx context.Context, id uuid.UUID, stock int) error {
	updates := map[string]any{"stock_eggs": stock}
	if stock == 0 {
		updates["status"] = enums.ListingStatusInactive
	}
	err := r.db.WithContext(ctx).Model(&models.EggListing{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh listing stock")
	}
	return nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.EggListing, error) {
	var rows []models.EggListing
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("grade ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller listings")
	}
	return rows, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.EggListing, error) {
	var rows []models.EggListing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ListingStatusActive).
		Order("seller_id ASC").
		Order("grade ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active listings")
	}
	return rows, nil
}

// ActiveSellers returns the sellers that currently have at least one active listing.
func (r *repository) ActiveSellers(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN egg_listings ON egg_listings.seller_id = users.id AND egg_listings.status = ?", enums.ListingStatusActive).
		Where("users.role = ?", enums.UserRoleSeller).
		Group("users.id").
		Order("users.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active sellers")
	}
	return rows, nil
}

// FindSeller loads one user with the seller role, nil when absent.
func (r *repository) FindSeller(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, enums.UserRoleSeller).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	return &user, nil
}

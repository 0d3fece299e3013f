package addresses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db/models"
)

// ErrVersionConflict is returned when an address changed since it was read.
var ErrVersionConflict = errors.New("address was modified concurrently")

// Repository persists address book entries.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// ListByUser returns the default address first, then newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows := []models.Address{}
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// MostRecent returns the newest address of userID.
func (r *Repository) MostRecent(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	if address.Version == 0 {
		address.Version = 1
	}
	return r.DB(ctx).Create(address).Error
}

// Save writes address if its stored version still equals address.Version and
// advances the version.
func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	now := time.Now().UTC()
	res := r.DB(ctx).Model(&models.Address{}).
		Where("id = ? AND version = ?", address.ID, address.Version).
		UpdateColumns(map[string]any{
			"type":        address.Type,
			"full_name":   address.FullName,
			"phone":       address.Phone,
			"line1":       address.Line1,
			"line2":       address.Line2,
			"city":        address.City,
			"state":       address.State,
			"postal_code": address.PostalCode,
			"country":     address.Country,
			"landmark":    address.Landmark,
			"is_default":  address.IsDefault,
			"version":     address.Version + 1,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	address.Version++
	address.UpdatedAt = now
	return nil
}

// ClearDefaults unsets the default flag on every other address of userID.
func (r *Repository) ClearDefaults(ctx context.Context, userID, exceptID uuid.UUID) error {
	return r.DB(ctx).Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		UpdateColumns(map[string]any{
			"is_default": false,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Address{}, "id = ?", id).Error
}

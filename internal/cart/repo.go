package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// ErrVersionConflict is returned when a cart changed between read and write.
var ErrVersionConflict = errors.New("cart was modified concurrently")

// Repository persists the single cart document of each user.
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

func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).First(&cart, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the owner's cart, inserting an empty one on first access.
func (r *Repository) GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, ownerID)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	cart = &models.Cart{OwnerID: ownerID, Items: dbtypes.CartLines{}, Version: 1}
	if err := r.DB(ctx).Create(cart).Error; err != nil {
		// A concurrent first access created it already.
		if db.IsUniqueViolation(err, "") {
			return r.FindByOwner(ctx, ownerID)
		}
		return nil, err
	}
	return cart, nil
}

// ReplaceItems writes items if the cart still has the version that was read,
// then advances the in-memory copy.
func (r *Repository) ReplaceItems(ctx context.Context, cart *models.Cart, items dbtypes.CartLines) error {
	if items == nil {
		items = dbtypes.CartLines{}
	}
	now := time.Now().UTC()
	res := r.DB(ctx).Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		UpdateColumns(map[string]any{
			"items":      items,
			"version":    cart.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	cart.Items = items
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

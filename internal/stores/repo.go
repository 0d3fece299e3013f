package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// Repository persists stores.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if store.Followers == nil {
		store.Followers = dbtypes.UUIDList{}
	}
	if store.ProductIDs == nil {
		store.ProductIDs = dbtypes.UUIDList{}
	}
	if err := r.DB(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByOwner returns the single store of ownerID.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).First(&store, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *Repository) Save(ctx context.Context, store *models.Store) error {
	return r.DB(ctx).Save(store).Error
}

func (r *Repository) UpdateFollowers(ctx context.Context, id uuid.UUID, followers dbtypes.UUIDList) error {
	return r.DB(ctx).Model(&models.Store{}).Where("id = ?", id).Update("followers", followers).Error
}

func (r *Repository) UpdateProductIDs(ctx context.Context, id uuid.UUID, productIDs dbtypes.UUIDList) error {
	return r.DB(ctx).Model(&models.Store{}).Where("id = ?", id).Update("product_ids", productIDs).Error
}

package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

// ListFilter narrows the public product browse.
type ListFilter struct {
	Query    string
	Category string
	StoreID  *uuid.UUID
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Repository persists products.
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

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Images == nil {
		product.Images = dbtypes.StringList{}
	}
	if product.Likes == nil {
		product.Likes = dbtypes.UUIDList{}
	}
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products keyed by id. Missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListByStore returns every product of a store, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	rows := []models.Product{}
	err := r.DB(ctx).Where("store_id = ?", storeID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// List returns one page of active products matching filter.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, int64, error) {
	q := r.DB(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", like, like)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if filter.StoreID != nil {
		q = q.Where("store_id = ?", *filter.StoreID)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	return repo.FindPage[models.Product](q.Order("created_at DESC"), params)
}

// Featured ranks active products by likes, then recency.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	rows := []models.Product{}
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("likes_count DESC").
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// Save writes every column of product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// UpdateLikes stores the like list and its cached count together.
func (r *Repository) UpdateLikes(ctx context.Context, id uuid.UUID, likes dbtypes.UUIDList) error {
	return r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
		"likes":       likes,
		"likes_count": len(likes),
	}).Error
}

// DecrementStock takes qty units if at least qty are available. It reports
// false when stock was insufficient.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

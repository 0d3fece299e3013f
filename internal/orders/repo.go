package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/pkg/db/models"
	"github.com/marketly/marketly-backend/pkg/enums"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its lines.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.page(applyFilter(q, filter), params)
}

// ListByStore returns orders that contain at least one line of storeID.
func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN (?)", r.db.Model(&models.OrderItem{}).Select("order_id").Where("store_id = ?", storeID))
	return r.page(applyFilter(q, filter), params)
}

func (r *repository) page(q *gorm.DB, params pagination.Params) ([]models.Order, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	rows := []models.Order{}
	err := q.Session(&gorm.Session{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	return q
}

func (r *repository) StoreHasItems(ctx context.Context, orderID, storeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND store_id = ?", orderID, storeID).
		Count(&count).Error
	return count > 0, err
}

// SaveStatus persists status, history and updated_at only.
func (r *repository) SaveStatus(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).UpdateColumns(map[string]any{
		"status":         order.Status,
		"status_history": order.StatusHistory,
		"updated_at":     order.UpdatedAt,
	}).Error
}

func (r *repository) IntentInUse(ctx context.Context, intentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("payment_intent_id = ?", intentID).Count(&count).Error
	return count > 0, err
}

// UpdatePaymentStatusByIntent sets status on every order paid by intentID whose
// payment status differs, returning the ids it changed.
func (r *repository) UpdatePaymentStatusByIntent(ctx context.Context, intentID string, status enums.PaymentStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("payment_intent_id = ? AND payment_status <> ?", intentID, status).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.Order{}).Where("id IN ?", ids).UpdateColumns(map[string]any{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/pkg/db/models"
	"github.com/marketly/marketly-backend/pkg/enums"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, int64, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, int64, error)
	StoreHasItems(ctx context.Context, orderID, storeID uuid.UUID) (bool, error)
	SaveStatus(ctx context.Context, order *models.Order) error
	IntentInUse(ctx context.Context, intentID string) (bool, error)
	UpdatePaymentStatusByIntent(ctx context.Context, intentID string, status enums.PaymentStatus) ([]uuid.UUID, error)
}

type storeOwnerLookup interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

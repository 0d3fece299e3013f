package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/events"
	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

// ReserveFunc runs inside the order transaction before the order is inserted.
type ReserveFunc func(ctx context.Context, tx *gorm.DB) error

// Service exposes order lifecycle operations.
type Service interface {
	Create(ctx context.Context, order *models.Order, reserve ReserveFunc) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) ([]OrderDTO, int64, error)
	ListForStore(ctx context.Context, actorID uuid.UUID, filter ListFilter, params pagination.Params) ([]OrderDTO, int64, error)
	Get(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	IntentInUse(ctx context.Context, intentID string) (bool, error)
	UpdatePaymentStatusByIntent(ctx context.Context, intentID string, status enums.PaymentStatus) (int, error)
}

type service struct {
	repo      Repository
	stores    storeOwnerLookup
	tx        txRunner
	publisher events.Publisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the order service. A nil publisher disables events.
func NewService(repo Repository, stores storeOwnerLookup, tx txRunner, publisher events.Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, stores: stores, tx: tx, publisher: publisher, logg: logg, now: time.Now}, nil
}

// Create writes a new order with a single pending history entry. reserve, when
// set, shares the transaction so stock and order commit together.
func (s *service) Create(ctx context.Context, order *models.Order, reserve ReserveFunc) (*OrderDTO, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain items")
	}
	now := s.now().UTC()
	order.Status = enums.OrderStatusPending
	order.StatusHistory = dbtypes.StatusHistory{{Status: string(enums.OrderStatusPending), At: now}}
	if order.PaymentStatus == "" {
		order.PaymentStatus = enums.PaymentStatusPending
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if reserve != nil {
			if err := reserve(ctx, tx); err != nil {
				return err
			}
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderEvent{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		ActorID: &order.UserID,
		Data: map[string]any{
			"total_amount":   order.TotalAmount.StringFixed(2),
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
		},
	})
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter, params pagination.Params) ([]OrderDTO, int64, error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, filter, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return fromModels(rows), total, nil
}

// ListForStore returns orders containing the actor's store products, with only
// that store's lines.
func (s *service) ListForStore(ctx context.Context, actorID uuid.UUID, filter ListFilter, params pagination.Params) ([]OrderDTO, int64, error) {
	store, err := s.stores.FindByOwner(ctx, actorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, 0, pkgerrors.New(pkgerrors.CodeForbidden, "only store owners can list store orders")
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup store")
	}
	rows, total, err := s.repo.ListByStore(ctx, store.ID, filter, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list store orders")
	}
	out := fromModels(rows)
	for i := range out {
		out[i].Items = itemsForStore(out[i].Items, store.ID)
	}
	return out, total, nil
}

func (s *service) Get(ctx context.Context, actorID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, repo.NotFound(err, "order not found")
	}
	if order.UserID != actorID {
		storeID, err := s.actorStoreID(ctx, actorID)
		if err != nil {
			return nil, err
		}
		seller, err := s.storeHasItems(ctx, s.repo, storeID, orderID)
		if err != nil {
			return nil, err
		}
		if !seller {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this order")
		}
	}
	dto := FromModel(order)
	return &dto, nil
}

// UpdateStatus applies a status change. Buyers may only cancel; sellers with
// lines in the order may set any status. History grows only on change.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	storeID, err := s.actorStoreID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		found, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			return repo.NotFound(err, "order not found")
		}
		seller, err := s.storeHasItems(ctx, txRepo, storeID, orderID)
		if err != nil {
			return err
		}
		switch {
		case seller:
		case found.UserID == actorID:
			if status != enums.OrderStatusCancelled {
				return pkgerrors.New(pkgerrors.CodeForbidden, "buyers can only cancel orders")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update this order")
		}

		now := s.now().UTC()
		previous = found.Status
		if found.Status != status {
			entry := dbtypes.StatusEntry{Status: string(status), At: now}
			if input.Note != nil {
				entry.Note = *input.Note
			}
			found.StatusHistory = append(found.StatusHistory, entry)
			found.Status = status
		}
		found.UpdatedAt = now
		if err := txRepo.SaveStatus(ctx, found); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.publish(ctx, events.OrderEvent{
			Type:    events.OrderStatusChanged,
			OrderID: order.ID,
			ActorID: &actorID,
			Data:    map[string]any{"from": previous, "to": status},
		})
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) IntentInUse(ctx context.Context, intentID string) (bool, error) {
	used, err := s.repo.IntentInUse(ctx, intentID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payment intent usage")
	}
	return used, nil
}

// UpdatePaymentStatusByIntent reconciles every order paid by intentID and
// reports how many changed.
func (s *service) UpdatePaymentStatusByIntent(ctx context.Context, intentID string, status enums.PaymentStatus) (int, error) {
	if !status.Settled() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "payment status must be completed or failed")
	}
	ids, err := s.repo.UpdatePaymentStatusByIntent(ctx, intentID, status)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	for _, id := range ids {
		s.publish(ctx, events.OrderEvent{
			Type:    events.OrderPaymentStatusChanged,
			OrderID: id,
			Data:    map[string]any{"payment_status": status, "payment_intent_id": intentID},
		})
	}
	return len(ids), nil
}

// actorStoreID returns the store owned by actorID, or nil for buyers.
func (s *service) actorStoreID(ctx context.Context, actorID uuid.UUID) (*uuid.UUID, error) {
	store, err := s.stores.FindByOwner(ctx, actorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup store")
	}
	return &store.ID, nil
}

func (s *service) storeHasItems(ctx context.Context, r Repository, storeID *uuid.UUID, orderID uuid.UUID) (bool, error) {
	if storeID == nil {
		return false, nil
	}
	ok, err := r.StoreHasItems(ctx, orderID, *storeID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order lines")
	}
	return ok, nil
}

// publish is best effort; the order write already committed.
func (s *service) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   event.OrderID.String(),
			"event_type": string(event.Type),
		})
		s.logg.Error(logCtx, "orders.event_publish_failed", err)
	}
}

func itemsForStore(items []ItemDTO, storeID uuid.UUID) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		if item.StoreID == storeID {
			out = append(out, item)
		}
	}
	return out
}

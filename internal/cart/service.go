package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/money"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 999

// Service exposes cart operations for the authenticated owner.
type Service interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error)
	UpdateItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, ownerID uuid.UUID) (*View, error)
}

type service struct {
	repo     *Repository
	products *products.Repository
	shipping decimal.Decimal
	now      func() time.Time
}

// NewService builds a cart service. shipping is the flat surcharge shown on
// non-empty carts.
func NewService(repo *Repository, productRepo *products.Repository, shipping decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, products: productRepo, shipping: shipping, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, ownerID uuid.UUID) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.view(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, repo.NotFound(err, "product not found")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	return s.mutate(ctx, ownerID, func(items dbtypes.CartLines) (dbtypes.CartLines, error) {
		if idx := items.Index(productID); idx >= 0 {
			merged := items[idx].Quantity + quantity
			if merged > MaxLineQuantity {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", MaxLineQuantity))
			}
			items[idx].Quantity = merged
			items[idx].UnitPriceSnapshot = product.Price
			return items, nil
		}
		return append(items, dbtypes.CartLine{
			ProductID:         productID,
			Quantity:          quantity,
			AddedAt:           s.now().UTC(),
			UnitPriceSnapshot: product.Price,
		}), nil
	})
}

func (s *service) UpdateItem(ctx context.Context, ownerID, productID uuid.UUID, quantity int) (*View, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, func(items dbtypes.CartLines) (dbtypes.CartLines, error) {
		idx := items.Index(productID)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		items[idx].Quantity = quantity
		return items, nil
	})
}

func (s *service) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, ownerID, func(items dbtypes.CartLines) (dbtypes.CartLines, error) {
		idx := items.Index(productID)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) (*View, error) {
	return s.mutate(ctx, ownerID, func(dbtypes.CartLines) (dbtypes.CartLines, error) {
		return dbtypes.CartLines{}, nil
	})
}

// mutate applies fn to a copy of the current lines and writes the result
// against the version that was read.
func (s *service) mutate(ctx context.Context, ownerID uuid.UUID, fn func(dbtypes.CartLines) (dbtypes.CartLines, error)) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items := make(dbtypes.CartLines, len(cart.Items))
	copy(items, cart.Items)

	next, err := fn(items)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceItems(ctx, cart, next); err != nil {
		return nil, MapWriteError(err)
	}
	return s.view(ctx, cart)
}

func (s *service) view(ctx context.Context, cart *models.Cart) (*View, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	view := &View{
		ID:        cart.ID,
		OwnerID:   cart.OwnerID,
		Items:     make([]LineView, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		Version:   cart.Version,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, line := range cart.Items {
		lv := LineView{
			ProductID:         line.ProductID,
			Quantity:          line.Quantity,
			AddedAt:           line.AddedAt,
			UnitPriceSnapshot: line.UnitPriceSnapshot,
			UnitPrice:         line.UnitPriceSnapshot,
		}
		if product, ok := byID[line.ProductID]; ok {
			lv.Product = summarize(product)
			lv.UnitPrice = product.Price
			lv.Available = product.IsActive
		}
		lv.LineTotal = money.LineTotal(lv.UnitPrice, line.Quantity)
		if lv.Available {
			view.Subtotal = view.Subtotal.Add(lv.LineTotal)
		}
		view.ItemCount += line.Quantity
		view.Items = append(view.Items, lv)
	}

	view.ShippingCost = decimal.Zero
	if len(cart.Items) > 0 {
		view.ShippingCost = s.shipping
	}
	view.Subtotal = money.Round2(view.Subtotal)
	view.Total = money.Round2(view.Subtotal.Add(view.ShippingCost))
	return view, nil
}

func summarize(p models.Product) *ProductSummary {
	summary := &ProductSummary{
		ID:       p.ID,
		StoreID:  p.StoreID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		IsActive: p.IsActive,
	}
	if len(p.Images) > 0 {
		image := p.Images[0]
		summary.Image = &image
	}
	return summary
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", MaxLineQuantity))
	}
	return nil
}

// MapWriteError converts repository write failures into API errors.
func MapWriteError(err error) error {
	if errors.Is(err, ErrVersionConflict) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified by another request, retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
}

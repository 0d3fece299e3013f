package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/money"
)

// LineRequest is a product and quantity to price.
type LineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// PricedLine is a line repriced from the current product record.
type PricedLine struct {
	Product   models.Product
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Options   dbtypes.PaymentOptions
}

// Pricing is the authoritative total of a set of lines.
type Pricing struct {
	Lines        []PricedLine
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	TotalMinor   int64
}

// price reprices lines from the product table and resolves each line's
// effective payment options. Client prices are never consulted.
func (s *service) price(ctx context.Context, lines []LineRequest) (*Pricing, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
		}
		ids = append(ids, line.ProductID)
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	storeOptions := map[uuid.UUID]*dbtypes.PaymentOptions{}
	pricing := &Pricing{Subtotal: decimal.Zero}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s no longer exists", line.ProductID))
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is no longer available", product.Name))
		}
		if product.Stock < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %q", product.Name)).
				WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
		}

		opts, cached := storeOptions[product.StoreID]
		if !cached {
			opts, err = s.storeOptions(ctx, product.StoreID)
			if err != nil {
				return nil, err
			}
			storeOptions[product.StoreID] = opts
		}

		lineTotal := money.LineTotal(product.Price, line.Quantity)
		pricing.Lines = append(pricing.Lines, PricedLine{
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
			Options:   products.EffectivePaymentOptions(product.PaymentOptionsOverride, opts),
		})
		pricing.Subtotal = pricing.Subtotal.Add(lineTotal)
	}

	pricing.ShippingCost = s.shipping
	pricing.Total = pricing.Subtotal.Add(pricing.ShippingCost)
	pricing.TotalMinor = money.ToMinor(pricing.Total)
	return pricing, nil
}

func (s *service) storeOptions(ctx context.Context, storeID uuid.UUID) (*dbtypes.PaymentOptions, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return &store.PaymentOptions, nil
}

// mergeLines collapses duplicate product ids so each product is priced once.
func mergeLines(lines []LineRequest) []LineRequest {
	out := make([]LineRequest, 0, len(lines))
	index := map[uuid.UUID]int{}
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

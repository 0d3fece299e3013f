package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/addresses"
	"github.com/marketly/marketly-backend/internal/cart"
	"github.com/marketly/marketly-backend/internal/checkout/reservation"
	"github.com/marketly/marketly-backend/internal/orders"
	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/money"
)

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// PaymentVerifier confirms a card payment out of band before an order is written.
type PaymentVerifier interface {
	VerifyPaymentIntentForCheckout(ctx context.Context, ownerID uuid.UUID, intentID string, expectedMinor int64) error
}

type addressBook interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*addresses.AddressDTO, error)
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order, reserve orders.ReserveFunc) (*orders.OrderDTO, error)
	IntentInUse(ctx context.Context, intentID string) (bool, error)
}

// Input is shared by cart checkout and direct order submission. AddressID,
// when set, replaces DeliveryAddress with a snapshot of the saved address.
type Input struct {
	AddressID       *uuid.UUID
	DeliveryAddress dbtypes.AddressSnapshot
	PaymentMethod   string
	PaymentIntentID *string
	Notes           *string
}

// SubmitInput places an order for explicit lines without touching the cart.
type SubmitInput struct {
	Input
	Items []LineRequest
}

// Quote is the authoritative price of the owner's cart.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	TotalMinor   int64           `json:"total_minor"`
	ItemCount    int             `json:"item_count"`
}

// Service turns carts and direct submissions into orders.
type Service interface {
	Quote(ctx context.Context, ownerID uuid.UUID) (*Quote, error)
	CheckoutCart(ctx context.Context, ownerID uuid.UUID, input Input) (*orders.OrderDTO, error)
	SubmitOrder(ctx context.Context, ownerID uuid.UUID, input SubmitInput) (*orders.OrderDTO, error)
}

// ServiceParams groups checkout dependencies. Payments may be nil when card
// payments are not configured.
type ServiceParams struct {
	Carts     *cart.Repository
	Products  *products.Repository
	Stores    storeReader
	Orders    orderWriter
	Addresses addressBook
	Payments  PaymentVerifier
	Shipping  decimal.Decimal
	Logger    *logger.Logger
}

type service struct {
	carts     *cart.Repository
	products  *products.Repository
	stores    storeReader
	orders    orderWriter
	addresses addressBook
	payments  PaymentVerifier
	shipping  decimal.Decimal
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	return &service{
		carts:     params.Carts,
		products:  params.Products,
		stores:    params.Stores,
		orders:    params.Orders,
		addresses: params.Addresses,
		payments:  params.Payments,
		shipping:  params.Shipping,
		logg:      params.Logger,
	}, nil
}

func (s *service) Quote(ctx context.Context, ownerID uuid.UUID) (*Quote, error) {
	c, err := s.loadCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	pricing, err := s.price(ctx, cartLines(c.Items))
	if err != nil {
		return nil, err
	}
	count := 0
	for _, line := range pricing.Lines {
		count += line.Quantity
	}
	return &Quote{
		Subtotal:     money.Round2(pricing.Subtotal),
		ShippingCost: money.Round2(pricing.ShippingCost),
		Total:        money.Round2(pricing.Total),
		TotalMinor:   pricing.TotalMinor,
		ItemCount:    count,
	}, nil
}

// CheckoutCart prices the owner's cart, verifies payment, claims the cart and
// writes the order. A failed order write puts the claimed lines back.
func (s *service) CheckoutCart(ctx context.Context, ownerID uuid.UUID, input Input) (*orders.OrderDTO, error) {
	input, err := s.resolveAddress(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	method, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	pricing, err := s.authorize(ctx, ownerID, cartLines(c.Items), method, input)
	if err != nil {
		return nil, err
	}

	claimed := make(dbtypes.CartLines, len(c.Items))
	copy(claimed, c.Items)
	if err := s.carts.ReplaceItems(ctx, c, dbtypes.CartLines{}); err != nil {
		return nil, cart.MapWriteError(err)
	}

	order, err := s.place(ctx, ownerID, pricing, method, input)
	if err != nil {
		s.restoreCart(ctx, ownerID, claimed)
		return nil, err
	}
	return order, nil
}

func (s *service) SubmitOrder(ctx context.Context, ownerID uuid.UUID, input SubmitInput) (*orders.OrderDTO, error) {
	resolved, err := s.resolveAddress(ctx, ownerID, input.Input)
	if err != nil {
		return nil, err
	}
	input.Input = resolved
	method, err := validateInput(input.Input)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain items")
	}
	pricing, err := s.authorize(ctx, ownerID, mergeLines(input.Items), method, input.Input)
	if err != nil {
		return nil, err
	}
	return s.place(ctx, ownerID, pricing, method, input.Input)
}

// authorize prices lines, applies the payment policy and, for card payments,
// verifies the intent.
func (s *service) authorize(ctx context.Context, ownerID uuid.UUID, lines []LineRequest, method enums.PaymentMethodType, input Input) (*Pricing, error) {
	pricing, err := s.price(ctx, lines)
	if err != nil {
		return nil, err
	}
	if err := CheckPaymentPolicy(pricing.Lines, method); err != nil {
		return nil, err
	}
	if method.IsCOD() {
		return pricing, nil
	}

	if s.payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "card payments are not configured")
	}
	intentID := strings.TrimSpace(*input.PaymentIntentID)
	used, err := s.orders.IntentInUse(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment intent already used for another order")
	}
	if err := s.payments.VerifyPaymentIntentForCheckout(ctx, ownerID, intentID, pricing.TotalMinor); err != nil {
		return nil, err
	}
	return pricing, nil
}

func (s *service) place(ctx context.Context, ownerID uuid.UUID, pricing *Pricing, method enums.PaymentMethodType, input Input) (*orders.OrderDTO, error) {
	order := &models.Order{
		UserID:          ownerID,
		Subtotal:        money.Round2(pricing.Subtotal),
		ShippingCost:    money.Round2(pricing.ShippingCost),
		TotalAmount:     money.Round2(pricing.Total),
		DeliveryAddress: input.DeliveryAddress,
		PaymentMethod:   method,
		PaymentStatus:   enums.PaymentStatusPending,
		Notes:           trimmedOrNil(input.Notes),
	}
	if !method.IsCOD() {
		intentID := strings.TrimSpace(*input.PaymentIntentID)
		order.PaymentIntentID = &intentID
		order.PaymentStatus = enums.PaymentStatusCompleted
	}

	requests := make([]reservation.Request, 0, len(pricing.Lines))
	for _, line := range pricing.Lines {
		item := models.OrderItem{
			ProductID: line.Product.ID,
			StoreID:   line.Product.StoreID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			LineTotal: line.LineTotal,
		}
		if len(line.Product.Images) > 0 {
			image := line.Product.Images[0]
			item.Image = &image
		}
		order.Items = append(order.Items, item)
		requests = append(requests, reservation.Request{ProductID: line.Product.ID, Qty: line.Quantity})
	}

	return s.orders.Create(ctx, order, func(ctx context.Context, tx *gorm.DB) error {
		results, err := reservation.ReserveInventory(ctx, tx, requests)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}
		if failed := reservation.Failed(results); len(failed) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_ids": failed})
		}
		return nil
	})
}

// restoreCart merges claimed lines back into whatever the cart holds now.
func (s *service) restoreCart(ctx context.Context, ownerID uuid.UUID, claimed dbtypes.CartLines) {
	err := func() error {
		current, err := s.carts.GetOrCreate(ctx, ownerID)
		if err != nil {
			return err
		}
		merged := make(dbtypes.CartLines, len(current.Items))
		copy(merged, current.Items)
		for _, line := range claimed {
			if idx := merged.Index(line.ProductID); idx >= 0 {
				merged[idx].Quantity += line.Quantity
				continue
			}
			merged = append(merged, line)
		}
		return s.carts.ReplaceItems(ctx, current, merged)
	}()
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": ownerID.String(), "lines": len(claimed)})
	if err != nil {
		s.logg.Error(logCtx, "checkout.cart_restore_failed", err)
		return
	}
	s.logg.Warn(logCtx, "checkout.cart_restored")
}

func (s *service) loadCart(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	c, err := s.carts.FindByOwner(ctx, ownerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return c, nil
}

func (s *service) resolveAddress(ctx context.Context, ownerID uuid.UUID, input Input) (Input, error) {
	if input.AddressID == nil {
		return input, nil
	}
	if s.addresses == nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "address_id is not supported, send delivery_address")
	}
	addr, err := s.addresses.Get(ctx, ownerID, *input.AddressID)
	if err != nil {
		return input, err
	}
	input.DeliveryAddress = addresses.Snapshot(*addr)
	return input, nil
}

func validateInput(input Input) (enums.PaymentMethodType, error) {
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment_method.type is required")
	}
	method := enums.NormalizePaymentMethodType(input.PaymentMethod)
	if !method.IsCOD() && (input.PaymentIntentID == nil || strings.TrimSpace(*input.PaymentIntentID) == "") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment_intent_id is required for card payments")
	}
	addr := input.DeliveryAddress
	if strings.TrimSpace(addr.FullName) == "" || strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.City) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address requires full_name, line1 and city")
	}
	return method, nil
}

func cartLines(items dbtypes.CartLines) []LineRequest {
	out := make([]LineRequest, 0, len(items))
	for _, item := range items {
		out = append(out, LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

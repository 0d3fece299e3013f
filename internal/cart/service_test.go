package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/db/dbtest"
	"github.com/marketly/marketly-backend/pkg/db/models"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

type fixture struct {
	svc      Service
	repo     *Repository
	products *products.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.New(t)
	f := fixture{
		repo:     NewRepository(client.DB()),
		products: products.NewRepository(client.DB()),
	}
	svc, err := NewService(f.repo, f.products, decimal.NewFromInt(40))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f fixture) seedProduct(t *testing.T, price string, active bool) *models.Product {
	t.Helper()
	product, err := f.products.Create(context.Background(), &models.Product{
		StoreID:  uuid.New(),
		Name:     "Vase",
		Category: "decor",
		Price:    decimal.RequireFromString(price),
		Stock:    10,
		IsActive: active,
	})
	require.NoError(t, err)
	return product
}

func TestGetCreatesEmptyCartOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	first, err := f.svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, first.Items)
	require.True(t, first.ShippingCost.IsZero())
	require.True(t, first.Total.IsZero())

	second, err := f.svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestAddItemMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	product := f.seedProduct(t, "499", true)

	_, err := f.svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	require.Equal(t, 2, view.Items[0].Quantity)
	require.True(t, view.Items[0].UnitPriceSnapshot.Equal(decimal.NewFromInt(499)))
	require.True(t, view.Subtotal.Equal(decimal.NewFromInt(998)))
	require.True(t, view.ShippingCost.Equal(decimal.NewFromInt(40)))
	require.True(t, view.Total.Equal(decimal.NewFromInt(1038)))
	require.Equal(t, 2, view.ItemCount)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	inactive := f.seedProduct(t, "10", false)

	_, err := f.svc.AddItem(ctx, owner, inactive.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, owner, uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, owner, inactive.ID, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndRemoveRequireExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	product := f.seedProduct(t, "100", true)

	_, err := f.svc.UpdateItem(ctx, owner, product.ID, 3)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.RemoveItem(ctx, owner, product.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	view, err := f.svc.UpdateItem(ctx, owner, product.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, view.Items[0].Quantity)
	require.True(t, view.Subtotal.Equal(decimal.NewFromInt(300)))

	view, err = f.svc.RemoveItem(ctx, owner, product.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.True(t, view.Total.IsZero())
}

func TestClearEmptiesCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	_, err := f.svc.AddItem(ctx, owner, f.seedProduct(t, "5", true).ID, 2)
	require.NoError(t, err)

	view, err := f.svc.Clear(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestReplaceItemsRejectsStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	product := f.seedProduct(t, "5", true)

	stale, err := f.repo.GetOrCreate(ctx, owner)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, owner, product.ID, 1)
	require.NoError(t, err)

	err = f.repo.ReplaceItems(ctx, stale, nil)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.True(t, pkgerrors.IsCode(MapWriteError(err), pkgerrors.CodeConflict))

	current, err := f.repo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, current.Items, 1)
	require.Equal(t, 2, current.Version)
}

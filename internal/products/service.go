package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db/models"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/pagination"
)

const defaultFeaturedLimit = 8

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the public catalogue.
type Service interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]ProductDTO, int64, error)
	Featured(ctx context.Context, limit int) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DetailDTO, error)
	ToggleLike(ctx context.Context, userID, productID uuid.UUID) (*LikeResult, error)
}

type service struct {
	repo   *Repository
	stores storeReader
	tx     txRunner
}

func NewService(repo *Repository, stores storeReader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stores: stores, tx: tx}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]ProductDTO, int64, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(rows), total, nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]ProductDTO, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	rows, err := s.repo.Featured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DetailDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "product not found")
	}

	detail := &DetailDTO{ProductDTO: FromModel(*product)}
	store, err := s.stores.FindByID(ctx, product.StoreID)
	switch {
	case err == nil:
		detail.Store = &StoreSummary{ID: store.ID, Name: store.Name, LogoURL: store.LogoURL}
		detail.PaymentOptions = EffectivePaymentOptions(product.PaymentOptionsOverride, &store.PaymentOptions)
	case errors.Is(err, gorm.ErrRecordNotFound):
		detail.PaymentOptions = EffectivePaymentOptions(product.PaymentOptionsOverride, nil)
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return detail, nil
}

// ToggleLike adds or removes the user's like. A user counts at most once.
func (s *service) ToggleLike(ctx context.Context, userID, productID uuid.UUID) (*LikeResult, error) {
	var result LikeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			return repo.NotFound(err, "product not found")
		}
		likes, liked := product.Likes.Toggle(userID)
		if err := txRepo.UpdateLikes(ctx, productID, likes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update likes")
		}
		result = LikeResult{Liked: liked, LikesCount: len(likes)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

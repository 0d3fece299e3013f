package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/internal/users"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes store operations and seller catalogue management.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	Get(ctx context.Context, storeID uuid.UUID) (*DetailDTO, error)
	Update(ctx context.Context, actorID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	ToggleFollow(ctx context.Context, userID, storeID uuid.UUID) (*FollowResult, error)
	AddProduct(ctx context.Context, actorID, storeID uuid.UUID, input ProductInput) (*products.ProductDTO, error)
	UpdateProduct(ctx context.Context, actorID, storeID, productID uuid.UUID, input ProductUpdate) (*products.ProductDTO, error)
	DeleteProduct(ctx context.Context, actorID, storeID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products *products.Repository
	users    *users.Repository
	tx       txRunner
}

// NewService builds a store service with the provided repositories.
func NewService(repo *Repository, productRepo *products.Repository, userRepo *users.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: productRepo, users: userRepo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	options := dbtypes.DefaultPaymentOptions()
	if input.PaymentOptions != nil {
		options = *input.PaymentOptions
	}

	var created *models.Store
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		storeRepo := s.repo.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		if _, err := userRepo.FindByID(ctx, ownerID); err != nil {
			return repo.NotFound(err, "user not found")
		}
		_, err := storeRepo.FindByOwner(ctx, ownerID)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already owns a store")
		}
		if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup store")
		}

		store, err := storeRepo.Create(ctx, &models.Store{
			OwnerID:        ownerID,
			Name:           name,
			Description:    trimmed(input.Description),
			LogoURL:        trimmed(input.LogoURL),
			BannerURL:      trimmed(input.BannerURL),
			Category:       trimmed(input.Category),
			PaymentOptions: options,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user already owns a store")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create store")
		}
		if err := userRepo.MarkStoreOwner(ctx, ownerID, store.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark store owner")
		}
		created = store
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID) (*DetailDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return nil, repo.NotFound(err, "store not found")
	}
	rows, err := s.products.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list store products")
	}
	active := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			active = append(active, row)
		}
	}
	return &DetailDTO{StoreDTO: FromModel(store), Products: products.FromModels(active)}, nil
}

func (s *service) Update(ctx context.Context, actorID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.ownedStore(ctx, s.repo, actorID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = trimmed(input.Description)
	}
	if input.LogoURL != nil {
		store.LogoURL = trimmed(input.LogoURL)
	}
	if input.BannerURL != nil {
		store.BannerURL = trimmed(input.BannerURL)
	}
	if input.Category != nil {
		store.Category = trimmed(input.Category)
	}
	if input.PaymentOptions != nil {
		store.PaymentOptions = *input.PaymentOptions
	}

	if err := s.repo.Save(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update store")
	}
	dto := FromModel(store)
	return &dto, nil
}

// ToggleFollow flips userID's follow of the store.
func (s *service) ToggleFollow(ctx context.Context, userID, storeID uuid.UUID) (*FollowResult, error) {
	var result FollowResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		storeRepo := s.repo.WithTx(tx)
		store, err := storeRepo.FindByID(ctx, storeID)
		if err != nil {
			return repo.NotFound(err, "store not found")
		}
		if store.OwnerID == userID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot follow your own store")
		}
		followers, following := store.Followers.Toggle(userID)
		if err := storeRepo.UpdateFollowers(ctx, storeID, followers); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update followers")
		}
		result = FollowResult{Following: following, FollowersCount: len(followers)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) AddProduct(ctx context.Context, actorID, storeID uuid.UUID, input ProductInput) (*products.ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		storeRepo := s.repo.WithTx(tx)
		store, err := s.ownedStore(ctx, storeRepo, actorID, storeID)
		if err != nil {
			return err
		}
		product, err := s.products.WithTx(tx).Create(ctx, &models.Product{
			StoreID:                storeID,
			Name:                   strings.TrimSpace(input.Name),
			Description:            trimmed(input.Description),
			Category:               strings.TrimSpace(input.Category),
			Images:                 dbtypes.StringList(input.Images),
			Price:                  money.Round2(input.Price),
			OriginalPrice:          input.OriginalPrice,
			Stock:                  input.Stock,
			PaymentOptionsOverride: input.PaymentOptionsOverride,
			Likes:                  dbtypes.UUIDList{},
			IsActive:               active,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		if err := storeRepo.UpdateProductIDs(ctx, storeID, store.ProductIDs.Add(product.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link product")
		}
		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := products.FromModel(*created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, actorID, storeID, productID uuid.UUID, input ProductUpdate) (*products.ProductDTO, error) {
	if _, err := s.ownedStore(ctx, s.repo, actorID, storeID); err != nil {
		return nil, err
	}
	product, err := s.storeProduct(ctx, s.products, storeID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = trimmed(input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product category cannot be empty")
		}
		product.Category = category
	}
	if input.Images != nil {
		product.Images = dbtypes.StringList(*input.Images)
	}
	if input.Price != nil {
		if err := money.ValidatePrice(*input.Price); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		product.Price = money.Round2(*input.Price)
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.PaymentOptionsOverride != nil {
		product.PaymentOptionsOverride = *input.PaymentOptionsOverride
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := products.FromModel(*product)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, actorID, storeID, productID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		storeRepo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)
		store, err := s.ownedStore(ctx, storeRepo, actorID, storeID)
		if err != nil {
			return err
		}
		if _, err := s.storeProduct(ctx, productRepo, storeID, productID); err != nil {
			return err
		}
		if err := productRepo.Delete(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		if err := storeRepo.UpdateProductIDs(ctx, storeID, store.ProductIDs.Remove(productID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unlink product")
		}
		return nil
	})
}

func (s *service) ownedStore(ctx context.Context, storeRepo *Repository, actorID, storeID uuid.UUID) (*models.Store, error) {
	store, err := storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, repo.NotFound(err, "store not found")
	}
	if store.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the store owner can manage this store")
	}
	return store, nil
}

func (s *service) storeProduct(ctx context.Context, productRepo *products.Repository, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, repo.NotFound(err, "product not found")
	}
	if product.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	}
	if err := money.ValidatePrice(input.Price); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

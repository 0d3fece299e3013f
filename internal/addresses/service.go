package addresses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/db/models"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's address book. Whenever a user has addresses,
// exactly one of them is the default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	address, err := owned(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(address)
	return &dto, nil
}

// Create adds an address. The first address, or one flagged default, becomes
// the only default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error) {
	address, err := buildAddress(userID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count addresses")
		}
		if count == 0 {
			address.IsDefault = true
		}
		// idx_addresses_single_default is checked per statement, so the old
		// default goes before the new row lands.
		if address.IsDefault && count > 0 {
			if err := txRepo.ClearDefaults(ctx, userID, uuid.Nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		if err := txRepo.Create(ctx, address); err != nil {
			return mapWriteError(err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(address)
	return &dto, nil
}

// Update applies changes. Clearing the default flag is ignored; setting it
// moves the default here.
func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := owned(ctx, txRepo, userID, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != address.Version {
			return pkgerrors.New(pkgerrors.CodeConflict, "address was modified, reload and retry").
				WithDetails(map[string]any{"version": address.Version})
		}
		if err := applyUpdate(address, input); err != nil {
			return err
		}

		makeDefault := input.IsDefault != nil && *input.IsDefault && !address.IsDefault
		if makeDefault {
			if err := txRepo.ClearDefaults(ctx, userID, address.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
			address.IsDefault = true
		}
		if err := txRepo.Save(ctx, address); err != nil {
			return mapWriteError(err, "save address")
		}
		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	return &dto, nil
}

// Delete removes an address. Deleting the default promotes the most recently
// created remaining address.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := owned(ctx, txRepo, userID, id)
		if err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, address.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
		}
		if !address.IsDefault {
			return nil
		}

		next, err := txRepo.MostRecent(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load remaining addresses")
		}
		next.IsDefault = true
		if err := txRepo.Save(ctx, next); err != nil {
			return mapWriteError(err, "save address")
		}
		return nil
	})
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	var updated *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := owned(ctx, txRepo, userID, id)
		if err != nil {
			return err
		}
		if err := txRepo.ClearDefaults(ctx, userID, address.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
		}
		if !address.IsDefault {
			address.IsDefault = true
			if err := txRepo.Save(ctx, address); err != nil {
				return mapWriteError(err, "save address")
			}
		}
		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	return &dto, nil
}

func owned(ctx context.Context, r *Repository, userID, id uuid.UUID) (*models.Address, error) {
	address, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "address not found")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address belongs to another user")
	}
	return address, nil
}

func buildAddress(userID uuid.UUID, input Input) (*models.Address, error) {
	addrType, err := enums.ParseAddressType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address type")
	}
	address := &models.Address{
		UserID:     userID,
		Type:       addrType,
		FullName:   strings.TrimSpace(input.FullName),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      optional(input.Line2),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		Landmark:   optional(input.Landmark),
		IsDefault:  input.IsDefault,
	}
	if err := validateRequired(address); err != nil {
		return nil, err
	}
	return address, nil
}

func applyUpdate(address *models.Address, input UpdateInput) error {
	if input.Type != nil {
		addrType, err := enums.ParseAddressType(*input.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address type")
		}
		address.Type = addrType
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&address.FullName, input.FullName)
	set(&address.Phone, input.Phone)
	set(&address.Line1, input.Line1)
	set(&address.City, input.City)
	set(&address.State, input.State)
	set(&address.PostalCode, input.PostalCode)
	set(&address.Country, input.Country)
	if input.Line2 != nil {
		address.Line2 = optional(input.Line2)
	}
	if input.Landmark != nil {
		address.Landmark = optional(input.Landmark)
	}
	return validateRequired(address)
}

func validateRequired(a *models.Address) error {
	var missing []string
	for field, value := range map[string]string{
		"full_name":   a.FullName,
		"phone":       a.Phone,
		"line1":       a.Line1,
		"city":        a.City,
		"state":       a.State,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func mapWriteError(err error, op string) error {
	switch {
	case errors.Is(err, ErrVersionConflict):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "address was modified, reload and retry")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "default address changed concurrently, reload and retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

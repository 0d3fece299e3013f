package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/repo"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes profile and social graph operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ToggleFollow(ctx context.Context, userID, targetID uuid.UUID) (*FollowResult, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the users service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repo.NotFound(err, "user not found")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, repo.NotFound(err, "user not found")
	}
	if err := s.repo.UpdateProfile(ctx, userID, input.fields()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.GetProfile(ctx, userID)
}

// ToggleFollow flips userID's follow of targetID, keeping both lists in step.
func (s *service) ToggleFollow(ctx context.Context, userID, targetID uuid.UUID) (*FollowResult, error) {
	if userID == targetID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot follow yourself")
	}

	var result FollowResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		user, err := txRepo.FindByID(ctx, userID)
		if err != nil {
			return repo.NotFound(err, "user not found")
		}
		target, err := txRepo.FindByID(ctx, targetID)
		if err != nil {
			return repo.NotFound(err, "user not found")
		}

		following, now := user.Following.Toggle(targetID)
		followers := target.Followers.Remove(userID)
		if now {
			followers = target.Followers.Add(userID)
		}

		if err := txRepo.UpdateFollowing(ctx, userID, following); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update following")
		}
		if err := txRepo.UpdateFollowers(ctx, targetID, followers); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update followers")
		}
		result = FollowResult{Following: now, FollowersCount: len(followers)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

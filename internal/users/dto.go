package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/pkg/db/models"
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          *string    `json:"phone,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	Bio            *string    `json:"bio,omitempty"`
	IsStore        bool       `json:"is_store"`
	StoreID        *uuid.UUID `json:"store_id,omitempty"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SummaryDTO is the public card shown next to messages and conversations.
type SummaryDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	IsStore   bool       `json:"is_store"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
}

// UpdateProfileInput carries optional profile changes. Nil fields are untouched.
type UpdateProfileInput struct {
	Name      *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

// FollowResult reports the follow state after a toggle.
type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		AvatarURL:      u.AvatarURL,
		Bio:            u.Bio,
		IsStore:        u.IsStore,
		StoreID:        u.StoreID,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func SummaryFromModel(u models.User) SummaryDTO {
	return SummaryDTO{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		IsStore:   u.IsStore,
		StoreID:   u.StoreID,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		Followers:    dbtypes.UUIDList{},
		Following:    dbtypes.UUIDList{},
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in UpdateProfileInput) fields() map[string]any {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		fields["phone"] = optionalString(*in.Phone)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = optionalString(*in.AvatarURL)
	}
	if in.Bio != nil {
		fields["bio"] = optionalString(*in.Bio)
	}
	return fields
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
)

// ProfileDTO is the public projection of a user profile.
type ProfileDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateProfileRequest carries the editable profile fields. Nil means leave
// the field untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=80"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		CreatedAt:   p.CreatedAt,
	}
}

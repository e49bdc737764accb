package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public half of a user: one row per user, keyed by user id.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username    string    `gorm:"type:text;not null;uniqueIndex"`
	DisplayName *string   `gorm:"column:display_name"`
	AvatarURL   *string   `gorm:"column:avatar_url"`
	Bio         *string   `gorm:"column:bio"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

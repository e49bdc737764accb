package profiles

import (
	"context"
	"strings"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a profile row keyed by the owning user's id.
func (r *Repository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindByUserID loads the profile owned by the given user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUsername loads a profile by its unique username, case-insensitively.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("lower(username) = ?", strings.ToLower(username)).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserIDs loads the profiles for a set of users in one query.
func (r *Repository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var found []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// Update persists the mutable profile columns.
func (r *Repository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]any{
			"display_name": profile.DisplayName,
			"avatar_url":   profile.AvatarURL,
			"bio":          profile.Bio,
		}).Error
}

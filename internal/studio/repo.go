package studio

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

// Repository exposes photoshoot persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photoshoots repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a photoshoot row.
func (r *Repository) Create(ctx context.Context, shoot *models.Photoshoot) error {
	return r.db.WithContext(ctx).Create(shoot).Error
}

// ListByUser returns the owner's saved renders newest first, keyset paginated.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Photoshoot, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var shoots []models.Photoshoot
	if err := query.Find(&shoots).Error; err != nil {
		return nil, err
	}
	return shoots, nil
}

// FindByID loads a photoshoot scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, shootID uuid.UUID) (*models.Photoshoot, error) {
	var shoot models.Photoshoot
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", shootID, userID).
		First(&shoot).Error; err != nil {
		return nil, err
	}
	return &shoot, nil
}

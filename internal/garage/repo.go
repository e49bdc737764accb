package garage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

// Repository exposes car persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cars repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new car row.
func (r *Repository) Create(ctx context.Context, car *models.Car) error {
	return r.db.WithContext(ctx).Create(car).Error
}

// Update replaces every mutable column of an existing car.
func (r *Repository) Update(ctx context.Context, car *models.Car) error {
	return r.db.WithContext(ctx).
		Model(&models.Car{}).
		Where("id = ? AND user_id = ?", car.ID, car.UserID).
		Updates(map[string]any{
			"make":               car.Make,
			"model":              car.Model,
			"year":               car.Year,
			"color":              car.Color,
			"category":           car.Category,
			"image_url":          car.ImageURL,
			"images":             car.Images,
			"specs":              car.Specs,
			"ai_analysis":        car.AIAnalysis,
			"visual_description": car.VisualDescription,
		}).Error
}

// FindByID loads a car scoped to its owner.
func (r *Repository) FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error) {
	var car models.Car
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", carID, userID).
		First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

// ListByUser returns the owner's cars newest first, keyset paginated.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Car, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var cars []models.Car
	if err := query.Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// ListRecent returns the newest cars across all owners for the discover surface.
func (r *Repository) ListRecent(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Car, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var cars []models.Car
	if err := query.Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// Delete removes a car row scoped to its owner. Returns the affected count so
// callers can distinguish a miss from a success.
func (r *Repository) Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", carID, userID).
		Delete(&models.Car{})
	return result.RowsAffected, result.Error
}

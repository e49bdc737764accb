package feed

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

// Repository exposes post persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a posts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a post row.
func (r *Repository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// FindByID loads a post.
func (r *Repository) FindByID(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", postID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns feed entries newest first, keyset paginated.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Like records a user's like. Repeated likes are no-ops; the counter only
// moves when the like row is actually inserted.
func (r *Repository) Like(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostLike{PostID: postID, UserID: userID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	return inserted, err
}

// Unlike removes a user's like, decrementing the counter only when a like
// row was actually deleted.
func (r *Repository) Unlike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	return removed, err
}

// LikeCount reads the post's current counter.
func (r *Repository) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	var count int
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Pluck("like_count", &count).Error
	return count, err
}

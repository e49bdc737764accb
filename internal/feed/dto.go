package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/internal/profiles"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
)

// CreatePostRequest publishes a car or saved render to the public feed.
// Exactly one of the two references must be set.
type CreatePostRequest struct {
	CarID        *uuid.UUID `json:"car_id"`
	PhotoshootID *uuid.UUID `json:"photoshoot_id"`
	Caption      string     `json:"caption" validate:"max=500"`
}

// PostDTO is a feed entry with its author joined in.
type PostDTO struct {
	ID           uuid.UUID            `json:"id"`
	UserID       uuid.UUID            `json:"user_id"`
	CarID        *uuid.UUID           `json:"car_id,omitempty"`
	PhotoshootID *uuid.UUID           `json:"photoshoot_id,omitempty"`
	ImageURL     string               `json:"image_url"`
	Caption      string               `json:"caption"`
	LikeCount    int                  `json:"like_count"`
	Author       *profiles.ProfileDTO `json:"author,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// PostList is a cursor page of feed entries.
type PostList struct {
	Posts      []PostDTO `json:"posts"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// LikeResult reports the post's counter after a like or unlike.
type LikeResult struct {
	PostID    uuid.UUID `json:"post_id"`
	LikeCount int       `json:"like_count"`
	Liked     bool      `json:"liked"`
}

func FromModel(p *models.Post) *PostDTO {
	if p == nil {
		return nil
	}
	return &PostDTO{
		ID:           p.ID,
		UserID:       p.UserID,
		CarID:        p.CarID,
		PhotoshootID: p.PhotoshootID,
		ImageURL:     p.ImageURL,
		Caption:      p.Caption,
		LikeCount:    p.LikeCount,
		CreatedAt:    p.CreatedAt,
	}
}

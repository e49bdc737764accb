package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a feed entry. It optionally references the car or photoshoot the
// image came from; the image URL is denormalized so feeds render without joins.
type Post struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;column:user_id;not null;index"`
	CarID        *uuid.UUID `gorm:"type:uuid;column:car_id"`
	PhotoshootID *uuid.UUID `gorm:"type:uuid;column:photoshoot_id"`
	ImageURL     string     `gorm:"column:image_url;not null"`
	Caption      string     `gorm:"type:text;not null;default:''"`
	LikeCount    int        `gorm:"column:like_count;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// PostLike records one user's like on a post; the pair is unique.
type PostLike struct {
	PostID    uuid.UUID `gorm:"type:uuid;column:post_id;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	dbtypes "github.com/AymenMB/autogen-backend/pkg/db/types"
	"github.com/google/uuid"
)

// Photoshoot is a saved generation result: the uploaded output image plus the
// prompt/environment context it was produced with.
type Photoshoot struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;column:user_id;not null;index"`
	CarID       uuid.UUID       `gorm:"type:uuid;column:car_id;not null;index"`
	Prompt      string          `gorm:"type:text;not null"`
	Environment string          `gorm:"type:text;not null"`
	ImageURL    string          `gorm:"column:image_url;not null"`
	Settings    dbtypes.JSONMap `gorm:"type:jsonb;column:settings"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

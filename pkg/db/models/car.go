package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	dbtypes "github.com/AymenMB/autogen-backend/pkg/db/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CarSpecs is the structured spec block persisted as a JSON column.
type CarSpecs struct {
	Engine     string   `json:"engine"`
	Horsepower *int     `json:"horsepower"`
	Mods       []string `json:"mods"`
}

func (s *CarSpecs) Scan(src any) error {
	if src == nil {
		*s = CarSpecs{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("CarSpecs: unsupported Scan type %T", src)
	}
	if len(raw) == 0 {
		*s = CarSpecs{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

func (s CarSpecs) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Car is one catalogued vehicle. The primary image, when present, is always
// the first element of Images; saves enforce that ordering.
type Car struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID       `gorm:"type:uuid;column:user_id;not null;index"`
	Make              string          `gorm:"type:text;not null"`
	Model             string          `gorm:"type:text;not null"`
	Year              *int            `gorm:"column:year"`
	Color             *string         `gorm:"column:color"`
	Category          *string         `gorm:"column:category"`
	ImageURL          string          `gorm:"column:image_url;not null;default:''"`
	Images            pq.StringArray  `gorm:"type:text[];column:images"`
	Specs             CarSpecs        `gorm:"type:jsonb;column:specs"`
	AIAnalysis        dbtypes.JSONMap `gorm:"type:jsonb;column:ai_analysis"`
	VisualDescription *string         `gorm:"column:visual_description"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

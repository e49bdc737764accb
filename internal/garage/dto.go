package garage

import (
	"time"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
)

// CarDraft is the client-side working state for a car being added or edited.
// Numeric fields travel as strings; they are parsed at save time. Images is a
// mix of already-uploaded URLs (http prefix) and data URLs awaiting upload.
type CarDraft struct {
	Make                 string         `json:"make"`
	Model                string         `json:"model"`
	Year                 string         `json:"year"`
	Color                string         `json:"color"`
	Category             string         `json:"category"`
	Engine               string         `json:"engine"`
	Horsepower           string         `json:"horsepower"`
	Mods                 []string       `json:"mods"`
	VisualDescription    string         `json:"visual_description"`
	Images               []string       `json:"images"`
	AIAnalysis           map[string]any `json:"ai_analysis,omitempty"`
	AutoAnalysisConsumed bool           `json:"auto_analysis_consumed"`
}

// NewImage is one incoming image in an upload batch.
type NewImage struct {
	Name     string `json:"name"`
	Data     string `json:"data" validate:"required"`
	MimeType string `json:"mime_type"`
}

// UploadImagesRequest appends a batch of images to a draft.
type UploadImagesRequest struct {
	Draft  CarDraft   `json:"draft"`
	Images []NewImage `json:"images" validate:"required,min=1,dive"`
}

// UploadImagesResponse returns the updated draft plus how many batch items
// were dropped.
type UploadImagesResponse struct {
	Draft       CarDraft `json:"draft"`
	FailedCount int      `json:"failed_count"`
}

// AnalyzeRequest asks for AI extraction over the draft's images.
type AnalyzeRequest struct {
	Draft CarDraft `json:"draft"`
}

// AnalyzeResponse carries the draft with extracted fields merged in.
type AnalyzeResponse struct {
	Draft CarDraft `json:"draft"`
}

// SaveCarRequest persists a draft as a car row.
type SaveCarRequest struct {
	Draft CarDraft `json:"draft"`
}

// CarDTO is the stored car projection returned by the API.
type CarDTO struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	Make              string         `json:"make"`
	Model             string         `json:"model"`
	Year              *int           `json:"year,omitempty"`
	Color             *string        `json:"color,omitempty"`
	Category          *string        `json:"category,omitempty"`
	ImageURL          string         `json:"image_url"`
	Images            []string       `json:"images"`
	Specs             models.CarSpecs `json:"specs"`
	AIAnalysis        map[string]any `json:"ai_analysis,omitempty"`
	VisualDescription *string        `json:"visual_description,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CarList is a cursor page of cars.
type CarList struct {
	Cars       []CarDTO `json:"cars"`
	NextCursor *string  `json:"next_cursor,omitempty"`
}

func FromModel(c *models.Car) *CarDTO {
	if c == nil {
		return nil
	}
	return &CarDTO{
		ID:                c.ID,
		UserID:            c.UserID,
		Make:              c.Make,
		Model:             c.Model,
		Year:              c.Year,
		Color:             c.Color,
		Category:          c.Category,
		ImageURL:          c.ImageURL,
		Images:            append([]string(nil), c.Images...),
		Specs:             c.Specs,
		AIAnalysis:        c.AIAnalysis,
		VisualDescription: c.VisualDescription,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

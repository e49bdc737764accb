package studio

import (
	"time"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
)

// GenerateRequest asks for one restyled render of a garage car.
type GenerateRequest struct {
	CarID        uuid.UUID `json:"car_id" validate:"required"`
	StyleID      string    `json:"style_id" validate:"required"`
	CustomPrompt string    `json:"custom_prompt"`
}

// GenerateResponse returns the rendered image inline plus the prompt that
// produced it, so a later save can persist both.
type GenerateResponse struct {
	ImageDataURL string `json:"image_data_url"`
	Prompt       string `json:"prompt"`
	StyleID      string `json:"style_id"`
}

// SavePhotoshootRequest persists a generated render.
type SavePhotoshootRequest struct {
	CarID        uuid.UUID `json:"car_id" validate:"required"`
	StyleID      string    `json:"style_id" validate:"required"`
	Prompt       string    `json:"prompt"`
	ImageDataURL string    `json:"image_data_url" validate:"required"`
}

// PhotoshootDTO is the stored render projection returned by the API.
type PhotoshootDTO struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	CarID       uuid.UUID      `json:"car_id"`
	Prompt      string         `json:"prompt"`
	Environment string         `json:"environment"`
	ImageURL    string         `json:"image_url"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PhotoshootList is a cursor page of saved renders.
type PhotoshootList struct {
	Photoshoots []PhotoshootDTO `json:"photoshoots"`
	NextCursor  *string         `json:"next_cursor,omitempty"`
}

func FromModel(p *models.Photoshoot) *PhotoshootDTO {
	if p == nil {
		return nil
	}
	return &PhotoshootDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		CarID:       p.CarID,
		Prompt:      p.Prompt,
		Environment: p.Environment,
		ImageURL:    p.ImageURL,
		Settings:    p.Settings,
		CreatedAt:   p.CreatedAt,
	}
}

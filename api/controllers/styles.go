package controllers

import (
	"net/http"

	"github.com/AymenMB/autogen-backend/api/responses"
	"github.com/AymenMB/autogen-backend/internal/styles"
)

// StudioStyles returns the style preset catalog in display order.
func StudioStyles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"styles": styles.Presets()})
	}
}

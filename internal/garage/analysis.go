package garage

import (
	"encoding/json"
	"strconv"

	"github.com/AymenMB/autogen-backend/pkg/gemini"
)

const analysisInstruction = "Analyze these car images. Identify the make, model, estimated year (integer), specific color name (e.g., 'Miami Blue'), engine type, horsepower (integer), and any visible modifications (e.g., 'Aftermarket Wheels', 'Wing')."

// analysisSchema constrains the model output to the extraction shape.
func analysisSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "object",
		Properties: map[string]gemini.Schema{
			"make":  {Type: "string"},
			"model": {Type: "string"},
			"year":  {Type: "integer"},
			"color": {Type: "string"},
			"specs": {
				Type: "object",
				Properties: map[string]gemini.Schema{
					"engine":     {Type: "string"},
					"horsepower": {Type: "integer"},
					"mods": {
						Type:  "array",
						Items: &gemini.Schema{Type: "string"},
					},
				},
			},
		},
		Required: []string{"make", "model", "color"},
	}
}

type carExtraction struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
	Specs struct {
		Engine     string   `json:"engine"`
		Horsepower int      `json:"horsepower"`
		Mods       []string `json:"mods"`
	} `json:"specs"`
}

// mergeExtraction fills blank draft fields from the extraction, never
// overwriting values the user already entered. The raw model payload is kept
// on the draft for later inspection.
func mergeExtraction(draft CarDraft, extracted carExtraction, raw json.RawMessage) CarDraft {
	if draft.Make == "" {
		draft.Make = extracted.Make
	}
	if draft.Model == "" {
		draft.Model = extracted.Model
	}
	if draft.Year == "" && extracted.Year > 0 {
		draft.Year = strconv.Itoa(extracted.Year)
	}
	if draft.Color == "" {
		draft.Color = extracted.Color
	}
	if draft.Engine == "" {
		draft.Engine = extracted.Specs.Engine
	}
	if draft.Horsepower == "" && extracted.Specs.Horsepower > 0 {
		draft.Horsepower = strconv.Itoa(extracted.Specs.Horsepower)
	}
	if len(draft.Mods) == 0 {
		draft.Mods = extracted.Specs.Mods
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err == nil {
		draft.AIAnalysis = payload
	}
	return draft
}

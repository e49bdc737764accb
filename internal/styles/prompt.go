package styles

import (
	"fmt"
	"strconv"
	"strings"
)

// Vehicle carries the car details folded into a generation prompt.
type Vehicle struct {
	Make  string
	Model string
	Year  *int
	Color string
}

var lightingByStyle = map[string]string{
	StyleCyberpunk: "The lighting is cinematic with neon reflections dancing across the car's glossy paint. Holographic advertisements cast purple and cyan hues. Rain creates mirror-like puddles reflecting the urban chaos above.",
	StyleSnow:      "Crisp, cold lighting with soft shadows on the pristine snow. The car's tires kick up powdery snow creating dramatic trails. Misty atmosphere with sunlight breaking through clouds creating lens flares.",
	StyleFire:      "Intense orange and red lighting from volcanic activity illuminates the scene. Dramatic flames and embers reflect off the car's metallic surfaces. Smoke creates atmospheric depth with glowing lava providing rim lighting.",
	StyleSalt:      "Bright, even natural lighting with crystal-clear visibility. Perfect mirror reflections on the salt flat surface. Minimal shadows creating a surreal, minimalist composition with endless horizon.",
	StyleGarage:    "Professional studio lighting with dramatic LED accent strips. Polished concrete reflects the vehicle. Modern industrial aesthetic with focused spotlights highlighting the car's contours and details.",
}

const fallbackLighting = "The lighting is dramatic and cinematic, highlighting every detail of the vehicle with professional photography techniques."

// ConstructPrompt builds the engineered generation prompt for a style. The
// styleDescription is the preset description, or the user's own text for the
// custom style. Narrative styles substitute the vehicle into their template
// and return it as-is.
func ConstructPrompt(style, styleDescription string, car Vehicle) string {
	if IsNarrative(style) {
		prompt := styleDescription
		prompt = strings.ReplaceAll(prompt, "${car.make}", car.Make)
		prompt = strings.ReplaceAll(prompt, "${car.model}", car.Model)
		prompt = strings.ReplaceAll(prompt, "${car.year}", yearString(car.Year))
		prompt = strings.ReplaceAll(prompt, "${car.color}", colorOr(car.Color, "painted"))
		return prompt
	}

	lighting := lightingByStyle[style]
	if lighting == "" {
		lighting = fallbackLighting
	}

	return fmt.Sprintf(
		"A photorealistic, ultra high-resolution shot of a %s. The car is positioned as the hero subject in %s. %s The image has the quality of professional automotive photography with perfect composition, sharp focus, and rich detail. Camera: shot with a professional wide-angle lens, shallow depth of field, automotive magazine quality.",
		vehicleDescription(car),
		styleDescription,
		lighting,
	)
}

// vehicleDescription collapses the car details into a single phrase without
// doubled spaces when year or color is missing.
func vehicleDescription(car Vehicle) string {
	parts := []string{colorOr(car.Color, "sleek"), yearString(car.Year), car.Make, car.Model}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func yearString(year *int) string {
	if year == nil || *year == 0 {
		return ""
	}
	return strconv.Itoa(*year)
}

func colorOr(color, fallback string) string {
	if strings.TrimSpace(color) == "" {
		return fallback
	}
	return color
}

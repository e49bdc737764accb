package styles

// Preset describes one scene the studio can place a car into. Narrative
// presets carry a full prompt template with ${car.*} placeholders; the rest
// describe an environment that gets wrapped by the prompt builder.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

const (
	StyleCyberpunk = "cyberpunk"
	StyleSnow      = "snow"
	StyleFire      = "fire"
	StyleSalt      = "salt"
	StyleGarage    = "garage"
	StyleDiecast   = "diecast"
	StyleRally     = "rally"
	StyleCustom    = "custom"
)

var presets = []Preset{
	{
		ID:          StyleCyberpunk,
		Name:        "Cyberpunk City",
		Emoji:       "🌆",
		Description: "neon-lit cyberpunk cityscape with holographic billboards, rain-slicked streets reflecting purple and cyan lights, night scene with dramatic fog",
	},
	{
		ID:          StyleSnow,
		Name:        "Snowy Mountain",
		Emoji:       "🏔️",
		Description: "snow-covered mountain pass with pristine white powder, evergreen trees laden with snow, crisp blue sky, cold misty atmosphere",
	},
	{
		ID:          StyleFire,
		Name:        "Volcanic Eruption",
		Emoji:       "🌋",
		Description: "dramatic volcanic landscape with glowing lava flows, intense orange and red flames reflecting on the vehicle, smoke and embers in the air, apocalyptic atmosphere",
	},
	{
		ID:          StyleSalt,
		Name:        "Salt Flats",
		Emoji:       "🏜️",
		Description: "endless white salt flats stretching to the horizon, perfect mirror reflections, clear blue sky, minimalist desert landscape",
	},
	{
		ID:          StyleGarage,
		Name:        "Futuristic Garage",
		Emoji:       "🏢",
		Description: "high-tech automotive garage with LED strip lighting, polished concrete floors, modern industrial aesthetic, dramatic spotlighting",
	},
	{
		ID:          StyleDiecast,
		Name:        "Diecast Model",
		Emoji:       "🧸",
		Description: "Create a photorealistic macro shot of a high-end 1/18 scale diecast model replica of a ${car.color} ${car.year} ${car.make} ${car.model}. The model is placed on a wooden hobbyist desk using a circular transparent acrylic base. Next to the car, place a premium glossy collector's packaging box printed with the original artwork of the ${car.model}. In the background, slightly out of focus, a computer monitor displays a 3D wireframe CAD design of the vehicle. Soft, warm indoor lighting.",
	},
	{
		ID:          StyleRally,
		Name:        "Rally Stage",
		Emoji:       "🏁",
		Description: "A high-octane action shot of a ${car.color} ${car.year} ${car.make} ${car.model} drifting sideways around a tight gravel corner on a professional WRC rally circuit. Mud and dust are kicking up violently from the tires. The background is a motion-blurred pine forest indicating high speed. Dramatic golden hour lighting with lens flare. Cinematic composition.",
	},
	{
		ID:          StyleCustom,
		Name:        "Custom",
		Emoji:       "✨",
		Description: "",
	},
}

// Presets returns the catalog in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByID looks up a preset by its identifier.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// IsNarrative reports whether the style's description is a full prompt
// template rather than an environment description.
func IsNarrative(id string) bool {
	return id == StyleDiecast || id == StyleRally
}

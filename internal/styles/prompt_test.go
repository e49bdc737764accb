package styles

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestPresetsCatalogOrder(t *testing.T) {
	catalog := Presets()
	if len(catalog) != 8 {
		t.Fatalf("expected 8 presets, got %d", len(catalog))
	}

	wantOrder := []string{
		StyleCyberpunk, StyleSnow, StyleFire, StyleSalt,
		StyleGarage, StyleDiecast, StyleRally, StyleCustom,
	}
	for i, id := range wantOrder {
		if catalog[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, catalog[i].ID)
		}
	}

	if custom := catalog[7]; custom.Description != "" {
		t.Fatalf("custom preset must have empty description, got %q", custom.Description)
	}
}

func TestConstructPromptNarrativeSubstitutesAllPlaceholders(t *testing.T) {
	for _, styleID := range []string{StyleDiecast, StyleRally} {
		preset, ok := PresetByID(styleID)
		if !ok {
			t.Fatalf("preset %s missing", styleID)
		}

		car := Vehicle{Make: "Nissan", Model: "Skyline GT-R", Year: intPtr(1999), Color: "Bayside Blue"}
		prompt := ConstructPrompt(styleID, preset.Description, car)

		if strings.Contains(prompt, "${") {
			t.Fatalf("%s: unsubstituted placeholder in %q", styleID, prompt)
		}
		for _, want := range []string{"Nissan", "Skyline GT-R", "1999", "Bayside Blue"} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("%s: prompt missing %q", styleID, want)
			}
		}
		if strings.Contains(prompt, "hero subject") {
			t.Fatalf("%s: narrative prompt must not use the descriptive wrapper", styleID)
		}
	}
}

func TestConstructPromptNarrativeDefaults(t *testing.T) {
	preset, _ := PresetByID(StyleDiecast)
	car := Vehicle{Make: "Mazda", Model: "RX-7"}
	prompt := ConstructPrompt(StyleDiecast, preset.Description, car)

	if !strings.Contains(prompt, "painted") {
		t.Fatalf("expected color fallback, got %q", prompt)
	}
	if strings.Contains(prompt, "${") {
		t.Fatalf("unsubstituted placeholder in %q", prompt)
	}
}

func TestConstructPromptDescriptive(t *testing.T) {
	preset, _ := PresetByID(StyleCyberpunk)
	car := Vehicle{Make: "Porsche", Model: "911 GT3 RS", Year: intPtr(2024), Color: "Ruby Star Neo"}
	prompt := ConstructPrompt(StyleCyberpunk, preset.Description, car)

	if !strings.Contains(prompt, "a Ruby Star Neo 2024 Porsche 911 GT3 RS.") {
		t.Fatalf("unexpected vehicle phrase in %q", prompt)
	}
	if !strings.Contains(prompt, preset.Description) {
		t.Fatalf("prompt missing style description")
	}
	if !strings.Contains(prompt, "neon reflections dancing") {
		t.Fatalf("prompt missing cyberpunk lighting")
	}
}

func TestConstructPromptMissingDetailsHasNoDoubleSpaces(t *testing.T) {
	preset, _ := PresetByID(StyleSalt)
	car := Vehicle{Make: "Toyota", Model: "Supra"}
	prompt := ConstructPrompt(StyleSalt, preset.Description, car)

	if !strings.Contains(prompt, "a sleek Toyota Supra.") {
		t.Fatalf("expected sleek fallback, got %q", prompt)
	}
	if strings.Contains(prompt, "  ") {
		t.Fatalf("prompt contains doubled spaces: %q", prompt)
	}
}

func TestConstructPromptUnknownStyleUsesFallbackLighting(t *testing.T) {
	prompt := ConstructPrompt("underwater", "a deep sea trench", Vehicle{Make: "Audi", Model: "RS6"})

	if !strings.Contains(prompt, fallbackLighting) {
		t.Fatalf("expected fallback lighting, got %q", prompt)
	}
	if !strings.Contains(prompt, "a deep sea trench") {
		t.Fatalf("expected caller description to flow through, got %q", prompt)
	}
}

func TestEachStandardStyleGetsItsOwnLighting(t *testing.T) {
	car := Vehicle{Make: "BMW", Model: "M3", Year: intPtr(2021), Color: "Isle of Man Green"}
	seen := map[string]bool{}
	for _, styleID := range []string{StyleCyberpunk, StyleSnow, StyleFire, StyleSalt, StyleGarage} {
		preset, _ := PresetByID(styleID)
		prompt := ConstructPrompt(styleID, preset.Description, car)
		if !strings.Contains(prompt, lightingByStyle[styleID]) {
			t.Fatalf("%s: lighting clause missing", styleID)
		}
		if seen[lightingByStyle[styleID]] {
			t.Fatalf("%s: lighting clause duplicated", styleID)
		}
		seen[lightingByStyle[styleID]] = true
	}
}

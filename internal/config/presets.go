package config

import "sort"

// Style is the part of a Config a preset overrides.
type Style struct {
	Chars     string
	Threshold float64
	Noise     float64
	Contrast  float64
	Exposure  float64
}

// Presets are grouped by mode.
var Presets = map[string]map[string]Style{
	"glyph": {
		"classic":  {Chars: DefaultChars, Threshold: 240, Noise: 0.15, Contrast: 100},
		"blocks":   {Chars: "█▓▒░ ", Threshold: 245, Noise: 0, Contrast: 110},
		"grain":    {Chars: "@%#*+=-:. ", Threshold: 235, Noise: 0.4, Contrast: 100},
		"poster":   {Chars: "#+. ", Threshold: 200, Noise: 0, Contrast: 160, Exposure: 10},
		"midnight": {Chars: "MW8&oc;,. ", Threshold: 250, Noise: 0.05, Contrast: 130, Exposure: -20},
	},
	"dot": {
		"halftone": {Chars: DefaultChars, Threshold: 240, Noise: 0, Contrast: 100},
		"sparse":   {Chars: DefaultChars, Threshold: 180, Noise: 0, Contrast: 140},
		"speckle":  {Chars: DefaultChars, Threshold: 230, Noise: 0.3, Contrast: 100},
	},
}

// GetPreset returns the default config with the named style applied, or nil.
func GetPreset(mode, preset string) *Config {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	s, ok := modePresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	s.Apply(cfg, mode)
	return cfg
}

// Apply overwrites the styling fields of cfg and switches it to mode.
func (s Style) Apply(cfg *Config, mode string) {
	cfg.Mode = mode
	cfg.Chars = s.Chars
	cfg.WhiteThreshold = s.Threshold
	cfg.Noise = s.Noise
	cfg.Contrast = s.Contrast
	cfg.Exposure = s.Exposure
}

func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModes returns the modes that have presets.
func ListModes() []string {
	modes := make([]string, 0, len(Presets))
	for m := range Presets {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

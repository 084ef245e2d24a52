package config

import "github.com/samber/lo"

// AspirationWindowConfig controls the windows used by iterative deepening.
// The window around the previous score is InitialWindow + depth*DepthScale
// wide on each side; on failure the failing side grows by GrowthFactor
// until it passes MaxWindow, after which that side is opened fully.
type AspirationWindowConfig struct {
	Enabled       bool    `mapstructure:"enabled" yaml:"enabled"`
	InitialWindow int32   `mapstructure:"initial-window" yaml:"initial-window"`
	DepthScale    int32   `mapstructure:"depth-scale" yaml:"depth-scale"`
	GrowthFactor  float64 `mapstructure:"growth-factor" yaml:"growth-factor"`
	MaxWindow     int32   `mapstructure:"max-window" yaml:"max-window"`
	MinDepth      int     `mapstructure:"min-depth" yaml:"min-depth"`
	MaxResearches int     `mapstructure:"max-researches" yaml:"max-researches"`
	// Aspiration is switched off for the rest of a search once the
	// fraction of failed windows reaches DisableFailRate over at least
	// DisableMinSamples windows.
	DisableFailRate   float64 `mapstructure:"disable-fail-rate" yaml:"disable-fail-rate"`
	DisableMinSamples int     `mapstructure:"disable-min-samples" yaml:"disable-min-samples"`
}

func DefaultAspirationConfig() AspirationWindowConfig {
	return AspirationWindowConfig{
		Enabled:           true,
		InitialWindow:     50,
		DepthScale:        5,
		GrowthFactor:      2.0,
		MaxWindow:         2000,
		MinDepth:          4,
		MaxResearches:     4,
		DisableFailRate:   0.6,
		DisableMinSamples: 8,
	}
}

func (c AspirationWindowConfig) Validate() error {
	v := &validator{record: "aspiration"}
	checkRange(v, "initial-window", c.InitialWindow, 1, 10000)
	checkRange(v, "depth-scale", c.DepthScale, 0, 1000)
	checkRange(v, "growth-factor", c.GrowthFactor, 1.1, 16)
	checkRange(v, "max-window", c.MaxWindow, c.InitialWindow, 1_000_000)
	checkRange(v, "min-depth", c.MinDepth, 1, MaxDepth)
	checkRange(v, "max-researches", c.MaxResearches, 0, 32)
	checkRange(v, "disable-fail-rate", c.DisableFailRate, 0, 1)
	checkRange(v, "disable-min-samples", c.DisableMinSamples, 1, 10000)
	return v.err()
}

// NewValidatedAspirationConfig clamps every field into its legal range.
func NewValidatedAspirationConfig(c AspirationWindowConfig) AspirationWindowConfig {
	c.InitialWindow = lo.Clamp(c.InitialWindow, 1, 10000)
	c.DepthScale = lo.Clamp(c.DepthScale, 0, 1000)
	c.GrowthFactor = lo.Clamp(c.GrowthFactor, 1.1, 16)
	c.MaxWindow = lo.Clamp(c.MaxWindow, c.InitialWindow, 1_000_000)
	c.MinDepth = lo.Clamp(c.MinDepth, 1, MaxDepth)
	c.MaxResearches = lo.Clamp(c.MaxResearches, 0, 32)
	c.DisableFailRate = lo.Clamp(c.DisableFailRate, 0, 1)
	c.DisableMinSamples = lo.Clamp(c.DisableMinSamples, 1, 10000)
	return c
}

// Merge overlays the non-zero fields of o. A zero o leaves c unchanged;
// otherwise switches come from o, so an override that changes any field
// carries the switches it wants as well.
func (c AspirationWindowConfig) Merge(o AspirationWindowConfig) AspirationWindowConfig {
	if o == (AspirationWindowConfig{}) {
		return c
	}
	return AspirationWindowConfig{
		Enabled:           o.Enabled,
		InitialWindow:     lo.CoalesceOrEmpty(o.InitialWindow, c.InitialWindow),
		DepthScale:        lo.CoalesceOrEmpty(o.DepthScale, c.DepthScale),
		GrowthFactor:      lo.CoalesceOrEmpty(o.GrowthFactor, c.GrowthFactor),
		MaxWindow:         lo.CoalesceOrEmpty(o.MaxWindow, c.MaxWindow),
		MinDepth:          lo.CoalesceOrEmpty(o.MinDepth, c.MinDepth),
		MaxResearches:     lo.CoalesceOrEmpty(o.MaxResearches, c.MaxResearches),
		DisableFailRate:   lo.CoalesceOrEmpty(o.DisableFailRate, c.DisableFailRate),
		DisableMinSamples: lo.CoalesceOrEmpty(o.DisableMinSamples, c.DisableMinSamples),
	}
}

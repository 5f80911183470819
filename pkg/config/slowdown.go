package config

import (
	"strings"

	"gcode-slowdown/pkg/gcode"
	"gcode-slowdown/pkg/scan"
)

// Section names understood by ParseSlowdownConfig.
const (
	SectionSlowdown = "slowdown"
	SectionFiles    = "files"
)

// SlowdownConfig holds the post-processor settings.
type SlowdownConfig struct {
	Distance  float64 // mm of travel before a retraction that runs slowly
	Feedrate  float64 // F word of the injected command, mm/min
	Extension string  // input file extension, e.g. ".gcode"
	Suffix    string  // appended to the stem of output files
}

// DefaultSlowdownConfig returns the built-in settings.
func DefaultSlowdownConfig() *SlowdownConfig {
	return &SlowdownConfig{
		Distance:  gcode.DefaultDistance,
		Feedrate:  gcode.DefaultFeedrate,
		Extension: scan.DefaultExtension,
		Suffix:    scan.DefaultSuffix,
	}
}

// Options returns the rewriting settings.
func (c *SlowdownConfig) Options() gcode.Options {
	return gcode.Options{Distance: c.Distance, Feedrate: c.Feedrate}
}

// Validate checks the settings after flags have been applied.
func (c *SlowdownConfig) Validate() error {
	if c.Distance <= 0 {
		return ErrOutOfRange(SectionSlowdown, "distance", c.Distance, "must be above 0")
	}
	if c.Feedrate <= 0 {
		return ErrOutOfRange(SectionSlowdown, "feedrate", c.Feedrate, "must be above 0")
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return ErrInvalidValue(SectionFiles, "extension", c.Extension, "a dot followed by an extension")
	}
	if c.Suffix == "" {
		return ErrMissingOption(SectionFiles, "suffix")
	}
	return nil
}

// ParseSlowdownConfig loads settings from a config file. Missing sections and
// options keep their defaults; unknown ones are rejected.
func ParseSlowdownConfig(path string) (*SlowdownConfig, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(c)
}

// FromConfig extracts settings from an already parsed Config.
func FromConfig(c *Config) (*SlowdownConfig, error) {
	if err := c.CheckUnusedSections(SectionSlowdown, SectionFiles); err != nil {
		return nil, err
	}

	cfg := DefaultSlowdownConfig()
	var err error

	sd := c.GetSectionOptional(SectionSlowdown)
	if cfg.Distance, err = sd.GetFloatWithBounds("distance", FloatBounds{Above: Float(0)}, cfg.Distance); err != nil {
		return nil, err
	}
	if cfg.Feedrate, err = sd.GetFloatWithBounds("feedrate", FloatBounds{Above: Float(0)}, cfg.Feedrate); err != nil {
		return nil, err
	}

	files := c.GetSectionOptional(SectionFiles)
	if cfg.Extension, err = files.Get("extension", cfg.Extension); err != nil {
		return nil, err
	}
	if cfg.Suffix, err = files.Get("suffix", cfg.Suffix); err != nil {
		return nil, err
	}

	if err := c.CheckUnusedOptions(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

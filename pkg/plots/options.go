package plots

import (
	"github.com/destinpq/eudr-plots/internal/engine"
)

// Config carries the injected reference data and thresholds the engine
// validates against. Zero-valued fields fall back to the defaults, so a
// caller may override just the tolerance or just the country table.
type Config struct {
	// AreaTolerance is the relative tolerance for the declared-vs-computed
	// area comparison. Default 0.10 (10%).
	AreaTolerance float64

	// Countries is the accepted ISO 3166-1 alpha-2 code list for the
	// producer country property. Default: the embedded ISO table.
	Countries []string

	// GeometryTypes is the geometry type whitelist.
	// Default: Polygon and Point.
	GeometryTypes []string
}

// DefaultConfig returns the configuration the portal ships with.
func DefaultConfig() Config {
	cfg := engine.DefaultConfig()
	return Config{
		AreaTolerance: cfg.AreaTolerance,
		Countries:     cfg.Countries,
		GeometryTypes: cfg.GeometryTypes,
	}
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
//
// Example file:
//
//	area_tolerance: 0.05
//	geometry_types: [Polygon]
func LoadConfig(path string) (Config, error) {
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	return Config{
		AreaTolerance: cfg.AreaTolerance,
		Countries:     cfg.Countries,
		GeometryTypes: cfg.GeometryTypes,
	}, nil
}

func (c Config) toEngine() engine.Config {
	cfg := engine.DefaultConfig()
	if c.AreaTolerance > 0 {
		cfg.AreaTolerance = c.AreaTolerance
	}
	if len(c.Countries) > 0 {
		cfg.Countries = c.Countries
	}
	if len(c.GeometryTypes) > 0 {
		cfg.GeometryTypes = c.GeometryTypes
	}
	return cfg
}

// ValidateOptions controls how a validation run executes. Parallelism
// only changes wall-clock time; the report is identical either way.
type ValidateOptions struct {
	// Parallel enables concurrent per-plot validation.
	Parallel bool

	// Workers is the number of validation goroutines when Parallel is
	// true. If 0, defaults to runtime.NumCPU().
	Workers int
}

// DefaultValidateOptions returns options suitable for typical collections.
func DefaultValidateOptions() ValidateOptions {
	opts := engine.DefaultValidateOptions()
	return ValidateOptions{
		Parallel: opts.Parallel,
		Workers:  opts.Workers,
	}
}

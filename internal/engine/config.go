package engine

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

// Config carries the injected reference data and thresholds the validators
// consume. It is data, not behavior: the same algorithms run against
// whatever table and tolerance the caller supplies, which keeps the
// country list and the tolerance testable and updatable independently of
// the validation code.
type Config struct {
	// AreaTolerance is the relative tolerance for the declared-vs-computed
	// area comparison. Default 0.10 (10%): wide enough to absorb the
	// planar-approximation error on parcel-scale polygons, tight enough to
	// catch order-of-magnitude declaration mistakes.
	AreaTolerance float64 `yaml:"area_tolerance"`

	// Countries is the enumerated ISO 3166-1 alpha-2 code list accepted
	// for the producer country property. Codes are stored uppercase.
	Countries []string `yaml:"countries"`

	// GeometryTypes is the geometry type whitelist. Anything else fails
	// the geometry-type step and short-circuits the remaining geometry
	// checks for that plot.
	GeometryTypes []string `yaml:"geometry_types"`
}

// countryTable is the shape of the embedded reference file.
type countryTable struct {
	Codes []string `yaml:"codes"`
}

// DefaultConfig returns the configuration the portal ships with: the
// embedded ISO 3166-1 table, the Polygon/Point whitelist, and the default
// area tolerance.
func DefaultConfig() Config {
	var table countryTable
	// The embedded table is part of the build; a decode failure here is a
	// build defect, not a runtime condition.
	if err := yaml.Unmarshal(countriesYAML, &table); err != nil {
		panic(fmt.Sprintf("embedded country table is invalid: %v", err))
	}

	return Config{
		AreaTolerance: 0.10,
		Countries:     table.Codes,
		GeometryTypes: []string{"Polygon", "Point"},
	}
}

// LoadConfig reads a YAML file and overlays it on the defaults. Absent
// fields keep their default values, so a file may override only the
// tolerance or only the country table.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if overlay.AreaTolerance > 0 {
		cfg.AreaTolerance = overlay.AreaTolerance
	}
	if len(overlay.Countries) > 0 {
		cfg.Countries = overlay.Countries
	}
	if len(overlay.GeometryTypes) > 0 {
		cfg.GeometryTypes = overlay.GeometryTypes
	}
	return cfg, nil
}

// KnownCountry reports whether code (normalized to uppercase) is in the
// configured country table. Matching is case-insensitive on both sides,
// so tables loaded from hand-edited files behave like the embedded one.
func (c *Config) KnownCountry(code string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, entry := range c.Countries {
		if strings.ToUpper(strings.TrimSpace(entry)) == normalized {
			return true
		}
	}
	return false
}

// SupportedGeometry reports whether the raw GeoJSON type string is in the
// configured whitelist.
func (c *Config) SupportedGeometry(geometryType string) bool {
	for _, t := range c.GeometryTypes {
		if t == geometryType {
			return true
		}
	}
	return false
}

package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// Well-known property names recognized by the engine. Property lookup is
// case-insensitive, so user files may carry "Area" or "producercountry"
// and still bind to these keys.
const (
	// KeyPlotID is the primary identifier property.
	KeyPlotID = "plotId"
	// KeySecondaryID is the fallback identifier property.
	KeySecondaryID = "id"
	// KeyName is the primary label property.
	KeyName = "name"
	// KeyAltName is the fallback label property.
	KeyAltName = "plotName"
	// KeyArea is the declared plot area in hectares.
	KeyArea = "area"
	// KeyProducerCountry is the ISO 3166-1 alpha-2 producer country code.
	KeyProducerCountry = "producerCountry"
)

// Feature represents one plot (land parcel) extracted from a GeoJSON
// FeatureCollection.
//
// A feature's PlotID is derived once at parse time and stays stable for
// the lifetime of an edit session even as other properties are patched.
type Feature struct {
	// PlotID is the stable identifier: the plotId property, the id
	// property, or a positional fallback ("plot-N") when both are absent.
	PlotID string
	// Label is a human-readable name for UI rows, empty when the source
	// carries none.
	Label string
	// GeometryType is the raw GeoJSON geometry type string ("Polygon",
	// "Point", or whatever else the file declared).
	GeometryType string
	// Geometry is the decoded geometry. It is nil when the coordinates
	// could not be decoded; validation degrades that to a failed step
	// instead of an error.
	Geometry geom.T
	// Properties is the feature's property bag. Recognized keys are
	// validated explicitly; unknown keys are carried but ignored.
	Properties map[string]interface{}
}

// Clone returns a copy of the feature with an independent property bag.
// Geometry is shared: only EditSession may mutate features, and it never
// touches geometry.
func (f *Feature) Clone() *Feature {
	props := make(map[string]interface{}, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &Feature{
		PlotID:       f.PlotID,
		Label:        f.Label,
		GeometryType: f.GeometryType,
		Geometry:     f.Geometry,
		Properties:   props,
	}
}

// Property returns the value bound to the named key, matching exactly
// first and case-insensitively second.
func (f *Feature) Property(key string) (interface{}, bool) {
	return propertyValue(f.Properties, key)
}

func propertyValue(props map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := props[key]; ok {
		return v, true
	}
	for k, v := range props {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// propertyKey returns the actual key under which a recognized property is
// stored, so patches update in place instead of duplicating the key.
func propertyKey(props map[string]interface{}, key string) string {
	if _, ok := props[key]; ok {
		return key
	}
	for k := range props {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

// derivePlotID resolves the stable plot identifier for the feature at the
// given position: primary key, secondary key, then positional fallback.
func derivePlotID(props map[string]interface{}, position int) string {
	for _, key := range []string{KeyPlotID, KeySecondaryID} {
		if v, ok := propertyValue(props, key); ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("plot-%d", position)
}

// deriveLabel resolves the optional human-readable label.
func deriveLabel(props map[string]interface{}) string {
	for _, key := range []string{KeyName, KeyAltName} {
		if v, ok := propertyValue(props, key); ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify renders scalar property values as identifier/label text.
// Non-scalar values yield "".
func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// coerceNumber converts a declared numeric property to float64.
// JSON numbers arrive as float64; user-edited values may be strings.
func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isFiniteNumber reports whether f is a usable finite value.
func isFiniteNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

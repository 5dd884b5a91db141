// Package plots validates GeoJSON plot collections submitted as
// deforestation-free origin evidence.
//
// The engine ingests a GeoJSON FeatureCollection describing land parcels,
// proves that every parcel is structurally well-formed, semantically
// complete, and geometrically sound, and produces precise per-plot
// diagnostics rather than a single pass/fail bit. It supports an edit →
// re-validate loop through sessions that preserve plot identity across
// property patches.
//
// Typical use:
//
//	session, err := plots.Parse(uploadedBytes)
//	if err != nil {
//	    // the file is not a FeatureCollection; nothing to diagnose
//	    return err
//	}
//	report := session.Validate()
//	if !report.Valid() {
//	    // show report.Results row by row, let the user fix and re-run
//	    _ = session.Patch("plot-7", "producerCountry", "br")
//	    report = session.Validate()
//	}
//	ids := report.ValidatedPlotIDs() // every plot, or nil
//
// The engine is pure, synchronous, in-memory computation with no I/O: it
// does not persist anything, does not reproject coordinates, and performs
// no remote-sensing analysis.
package plots

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/destinpq/eudr-plots/internal/engine"
)

// StructuralError indicates the input could not be decomposed into plots:
// the top-level object is not a FeatureCollection, the features member is
// missing or not a list, or a feature lacks a geometry or properties
// object. It is fatal for the whole run; no per-plot diagnostics exist.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s", e.Reason)
}

// Parse parses raw GeoJSON text into an edit session using the default
// configuration.
//
// The input must be a FeatureCollection (RFC 7946 subset: Polygon and
// Point geometries). On success every feature becomes a plot with a
// stable identifier; per-feature problems (bad attribute values, broken
// coordinates) are not errors here. They surface as failed steps when
// the session is validated.
func Parse(data []byte) (*Session, error) {
	return ParseWithConfig(data, DefaultConfig())
}

// ParseWithConfig parses raw GeoJSON text with injected reference data
// (country table, geometry whitelist, area tolerance).
func ParseWithConfig(data []byte, cfg Config) (*Session, error) {
	features, err := engine.ParseCollection(data)
	if err != nil {
		return nil, convertError(err)
	}
	return &Session{inner: engine.NewSession(features, cfg.toEngine())}, nil
}

// ParseObject builds a session from an already-decoded GeoJSON object,
// for callers whose upload collaborator has already run json.Unmarshal.
func ParseObject(v interface{}, cfg Config) (*Session, error) {
	features, err := engine.ParseObject(v)
	if err != nil {
		return nil, convertError(err)
	}
	return &Session{inner: engine.NewSession(features, cfg.toEngine())}, nil
}

func convertError(err error) error {
	var structural *engine.StructuralError
	if errors.As(err, &structural) {
		return &StructuralError{Reason: structural.Reason}
	}
	return err
}

// Session is a mutable, identity-preserving workspace over one parsed
// collection. It is exclusively owned by the caller that created it
// (typically one form instance) and must not be shared between logical
// flows.
type Session struct {
	inner *engine.Session
}

// Plots returns the session's current plots in file order.
func (s *Session) Plots() []Plot {
	return convertFeatures(s.inner.Features())
}

// Patch applies a typed coercion of value to the named plot's property:
// area-like fields coerce strings to numbers, the country field
// normalizes free text to an uppercase code. Geometry and the plot ID
// stay untouched, and the plot's identity is preserved across patches.
//
// Patching never triggers revalidation; the caller decides when to
// re-run Validate. It does invalidate any previously computed report:
// the session state returns to Unvalidated.
func (s *Session) Patch(plotID, field string, value interface{}) error {
	return s.inner.Patch(plotID, field, value)
}

// Snapshot returns copies of the current plots, for export to the
// submission collaborator once the collection has fully passed.
func (s *Session) Snapshot() []Plot {
	return convertFeatures(s.inner.Snapshot())
}

// SnapshotGeoJSON re-encodes the current plots as a GeoJSON
// FeatureCollection, the wire shape the submission collaborator attaches
// to a compliance record. Plots with undecodable geometry keep a null
// geometry member; such a collection can never have passed the gate.
func (s *Session) SnapshotGeoJSON() ([]byte, error) {
	type featureOut struct {
		Type       string                 `json:"type"`
		Geometry   json.RawMessage        `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}
	type collectionOut struct {
		Type     string       `json:"type"`
		Features []featureOut `json:"features"`
	}

	features := s.inner.Features()
	out := collectionOut{Type: "FeatureCollection", Features: make([]featureOut, len(features))}
	for i, feature := range features {
		geometry := json.RawMessage("null")
		if feature.Geometry != nil {
			encoded, err := geojson.Marshal(feature.Geometry)
			if err != nil {
				return nil, fmt.Errorf("encode plot %q geometry: %w", feature.PlotID, err)
			}
			geometry = encoded
		}
		out.Features[i] = featureOut{
			Type:       "Feature",
			Geometry:   geometry,
			Properties: feature.Properties,
		}
	}
	return json.Marshal(out)
}

// Validate runs the collection validator over the session's current state
// with default options and returns the full report.
//
// The gate is all-or-nothing: Report.Valid is true only when every plot
// passed and no collection-level errors exist, and only then does
// ValidatedPlotIDs return the (complete) ID list.
func (s *Session) Validate() *Report {
	return s.ValidateWithOptions(DefaultValidateOptions())
}

// ValidateWithOptions validates with explicit parallelism options. The
// report content is identical regardless of options; results always come
// back in file order.
func (s *Session) ValidateWithOptions(opts ValidateOptions) *Report {
	report := s.inner.Validate(engine.ValidateOptions{
		Parallel: opts.Parallel,
		Workers:  opts.Workers,
	})
	return convertReport(report)
}

// State returns the session's validation lifecycle state. It changes to
// Unvalidated only when a patch mutates the underlying plots; re-reading
// a prior report does not change it.
func (s *Session) State() RunState {
	return RunState(s.inner.State())
}

// PlotsInBounds returns the plots whose geometry bounding boxes intersect
// the given box. Intended for viewport-driven presentation layers.
func (s *Session) PlotsInBounds(bounds Bounds) []Plot {
	return convertFeatures(s.inner.PlotsInBounds(bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat))
}

// Plot represents one land parcel claimed as a commodity origin.
//
// All fields are private to maintain encapsulation; the plot's state is
// only mutated through Session.Patch.
type Plot struct {
	id           string
	label        string
	geometryType string
	geometry     geom.T
	properties   map[string]interface{}
}

// ID returns the stable plot identifier: the plotId property, the id
// property, or a positional fallback assigned at parse time. It never
// changes for the lifetime of a session.
func (p *Plot) ID() string { return p.id }

// Label returns the plot's human-readable name, or "" when the source
// carries none.
func (p *Plot) Label() string { return p.label }

// GeometryType returns the raw GeoJSON geometry type string.
func (p *Plot) GeometryType() string { return p.geometryType }

// Geometry returns the decoded geometry, or nil when the source
// coordinates could not be decoded.
func (p *Plot) Geometry() geom.T { return p.geometry }

// Properties returns the plot's property bag.
func (p *Plot) Properties() map[string]interface{} { return p.properties }

// Property returns a property value by name, matching case-insensitively,
// and whether it exists.
func (p *Plot) Property(name string) (interface{}, bool) {
	f := engine.Feature{Properties: p.properties}
	return f.Property(name)
}

func convertFeatures(features []*engine.Feature) []Plot {
	out := make([]Plot, len(features))
	for i, feature := range features {
		out[i] = Plot{
			id:           feature.PlotID,
			label:        feature.Label,
			geometryType: feature.GeometryType,
			geometry:     feature.Geometry,
			properties:   feature.Properties,
		}
	}
	return out
}

// Bounds is a geographic bounding box in lon/lat degrees.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains reports whether the box contains the given position.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects reports whether two boxes overlap.
func (b Bounds) Intersects(other Bounds) bool {
	return b.MinLon <= other.MaxLon && b.MaxLon >= other.MinLon &&
		b.MinLat <= other.MaxLat && b.MaxLat >= other.MinLat
}

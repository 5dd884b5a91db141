package engine

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// collectionEnvelope is the top-level FeatureCollection shell. Features is
// kept raw so a malformed member can be pinpointed before any geometry
// decoding happens.
type collectionEnvelope struct {
	Type     string           `json:"type"`
	Features *json.RawMessage `json:"features"`
}

// featureEnvelope is one feature shell. Geometry stays raw: it is decoded
// separately per feature so that malformed coordinates degrade to a failed
// validation step instead of aborting the run.
type featureEnvelope struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// geometryHeader extracts the declared geometry type without committing to
// a coordinate layout.
type geometryHeader struct {
	Type string `json:"type"`
}

// ParseCollection parses raw GeoJSON text into plot features.
//
// It returns a StructuralError when the top-level object is not a
// FeatureCollection, when the features member is missing or not a list, or
// when an individual feature lacks a geometry or properties object. Those
// failures are fatal for the whole run because the input cannot be
// meaningfully decomposed into plots.
//
// Per-feature coordinate problems are not errors here: a geometry whose
// coordinates cannot be decoded is kept with a nil Geometry and reported
// later as a failed validation step.
//
// ParseCollection is a pure function of its input and has no side effects.
func ParseCollection(data []byte) ([]*Feature, error) {
	var envelope collectionEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &StructuralError{Reason: fmt.Sprintf("input is not a JSON object: %v", err)}
	}

	if envelope.Type != "FeatureCollection" {
		return nil, &StructuralError{Reason: fmt.Sprintf("top-level type is %q, expected \"FeatureCollection\"", envelope.Type)}
	}
	if envelope.Features == nil {
		return nil, &StructuralError{Reason: "features member is missing"}
	}

	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(*envelope.Features, &rawFeatures); err != nil {
		return nil, &StructuralError{Reason: "features member is not a list"}
	}

	features := make([]*Feature, 0, len(rawFeatures))
	for i, raw := range rawFeatures {
		feature, err := parseFeature(raw, i)
		if err != nil {
			return nil, err
		}
		features = append(features, feature)
	}

	return features, nil
}

// ParseObject parses an already-decoded GeoJSON object (for example a
// value handed over by an upload collaborator that has already run
// json.Unmarshal). The object is re-encoded and routed through
// ParseCollection so both entry points share one set of structural rules.
func ParseObject(v interface{}) ([]*Feature, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &StructuralError{Reason: fmt.Sprintf("object is not JSON-encodable: %v", err)}
	}
	return ParseCollection(data)
}

// parseFeature decodes one feature member. Structural problems (missing
// geometry or properties objects) are fatal; undecodable coordinates are
// not.
func parseFeature(raw json.RawMessage, position int) (*Feature, error) {
	var envelope featureEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &StructuralError{Reason: fmt.Sprintf("feature %d is not an object: %v", position, err)}
	}

	if len(envelope.Geometry) == 0 || string(envelope.Geometry) == "null" {
		return nil, &StructuralError{Reason: fmt.Sprintf("feature %d has no geometry object", position)}
	}
	if envelope.Properties == nil {
		return nil, &StructuralError{Reason: fmt.Sprintf("feature %d has no properties object", position)}
	}

	var header geometryHeader
	if err := json.Unmarshal(envelope.Geometry, &header); err != nil {
		return nil, &StructuralError{Reason: fmt.Sprintf("feature %d geometry is not an object: %v", position, err)}
	}

	// Coordinate decoding is best-effort: wrong nesting, mixed dimensions
	// and similar damage leave Geometry nil and surface as a failed
	// "coordinates" step during validation.
	var geometry geom.T
	if err := geojson.Unmarshal(envelope.Geometry, &geometry); err != nil {
		geometry = nil
	}

	return &Feature{
		PlotID:       derivePlotID(envelope.Properties, position),
		Label:        deriveLabel(envelope.Properties),
		GeometryType: header.Type,
		Geometry:     geometry,
		Properties:   envelope.Properties,
	}, nil
}

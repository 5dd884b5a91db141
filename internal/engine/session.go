package engine

import (
	"strings"
)

// Session is a mutable, identity-preserving workspace over a parsed
// collection. It supports the portal's edit → re-validate loop: a caller
// patches individual plot properties and re-runs validation without
// re-parsing the source file.
//
// A session is exclusively owned by whichever caller created it (typically
// one form instance) and must not be shared between logical flows. Only
// the session mutates feature properties; validators treat their inputs as
// immutable.
type Session struct {
	features []*Feature
	byID     map[string]*Feature
	cfg      Config
	index    *plotIndex
	state    RunState
}

// NewSession creates a session over the parsed features. Features are
// cloned in, so the caller's slice cannot mutate session state behind its
// back.
func NewSession(features []*Feature, cfg Config) *Session {
	owned := make([]*Feature, len(features))
	byID := make(map[string]*Feature, len(features))
	for i, feature := range features {
		owned[i] = feature.Clone()
		// First occurrence wins on duplicate IDs; the duplicate itself is
		// reported as a collection error during validation.
		if _, exists := byID[owned[i].PlotID]; !exists {
			byID[owned[i].PlotID] = owned[i]
		}
	}
	return &Session{
		features: owned,
		byID:     byID,
		cfg:      cfg,
		index:    buildPlotIndex(owned),
		state:    StateUnvalidated,
	}
}

// Patch applies a typed coercion of value to the named plot's property:
// area-like fields coerce string input to numbers, the country field
// normalizes free text to an uppercase code. Geometry and the plot ID are
// never touched.
//
// A patch is synchronous and immediately visible to the next validation
// run, but it never triggers revalidation itself: the caller decides when
// to re-run, so the UI never flickers between stale and fresh results.
// Any prior run's results are invalidated (the session returns to
// Unvalidated).
func (s *Session) Patch(plotID, field string, value interface{}) error {
	feature, ok := s.byID[plotID]
	if !ok {
		return &UnknownPlotError{PlotID: plotID}
	}
	if strings.EqualFold(field, KeyPlotID) || strings.EqualFold(field, KeySecondaryID) {
		return &ImmutableFieldError{PlotID: plotID, Field: field}
	}

	key := propertyKey(feature.Properties, field)
	feature.Properties[key] = coercePatchValue(field, value)

	if strings.EqualFold(field, KeyName) || strings.EqualFold(field, KeyAltName) {
		feature.Label = deriveLabel(feature.Properties)
	}

	s.state = StateUnvalidated
	return nil
}

// coercePatchValue applies the field's typed coercion. Values that cannot
// be coerced are stored as-is; the next validation run reports them as
// failed steps rather than the patch failing.
func coercePatchValue(field string, value interface{}) interface{} {
	switch {
	case strings.EqualFold(field, KeyArea):
		if n, ok := coerceNumber(value); ok {
			return n
		}
	case strings.EqualFold(field, KeyProducerCountry):
		if s, ok := value.(string); ok {
			return strings.ToUpper(strings.TrimSpace(s))
		}
	}
	return value
}

// Snapshot returns a copy of the current features, for re-validation or
// export. The copies have independent property bags, so the downstream
// submission collaborator cannot mutate session state.
func (s *Session) Snapshot() []*Feature {
	snapshot := make([]*Feature, len(s.features))
	for i, feature := range s.features {
		snapshot[i] = feature.Clone()
	}
	return snapshot
}

// Validate runs the collection validator over the session's current state
// and records the outcome in the session run state.
//
// Validation is recomputed on every call, never cached across a mutation:
// re-reading a prior report does not change state, only Patch does.
func (s *Session) Validate(opts ValidateOptions) *Report {
	s.state = StateValidating
	report := ValidateCollection(s.features, s.cfg, opts)
	if report.Valid() {
		s.state = StateAllValid
	} else {
		s.state = StateHasErrors
	}
	return report
}

// State returns the session's run state.
func (s *Session) State() RunState {
	return s.state
}

// PlotsInBounds returns the plots whose geometry bounding boxes intersect
// the given lon/lat box. Intended for viewport-driven presentation; plots
// with undecodable geometry are never indexed and never returned.
func (s *Session) PlotsInBounds(minLon, minLat, maxLon, maxLat float64) []*Feature {
	return s.index.InBounds(minLon, minLat, maxLon, maxLat)
}

// Features returns the session's current features without copying.
// Callers must treat the result as read-only; Snapshot returns safe
// copies.
func (s *Session) Features() []*Feature {
	return s.features
}

// Config returns the session's validation configuration.
func (s *Session) Config() Config {
	return s.cfg
}

package engine

import (
	"fmt"
)

// StructuralError indicates the input cannot be decomposed into features.
//
// It is returned when the top-level object is not a FeatureCollection, when
// the features member is missing or not a list, or when an individual
// feature lacks a geometry or properties object. It is fatal for the whole
// run: no per-plot diagnostics are produced.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s", e.Reason)
}

// UnknownPlotError indicates a patch referenced a plot ID not present in
// the session.
type UnknownPlotError struct {
	PlotID string
}

func (e *UnknownPlotError) Error() string {
	return fmt.Sprintf("unknown plot id: %q", e.PlotID)
}

// ImmutableFieldError indicates a patch targeted a field that must remain
// stable for the session lifetime (identifier fields).
type ImmutableFieldError struct {
	PlotID string
	Field  string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %q of plot %q is immutable within a session", e.Field, e.PlotID)
}

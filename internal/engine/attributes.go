package engine

import (
	"fmt"
	"strings"
)

// Attribute step names, in the order the checks run.
const (
	StepIdentifier      = "identifier"
	StepDeclaredArea    = "declared-area"
	StepProducerCountry = "producer-country"
)

// ValidateAttributes checks presence, type, and domain of the recognized
// plot properties and returns one ordered step per check.
//
// It never returns an error: every failure is expressed as a failed step
// so the caller keeps collecting diagnostics across all checks. Unknown
// and extra properties are ignored, not flagged.
func ValidateAttributes(feature *Feature, cfg Config) []Step {
	return []Step{
		checkIdentifier(feature),
		checkDeclaredArea(feature),
		checkProducerCountry(feature, cfg),
	}
}

// checkIdentifier verifies that the plot carries a real identifier
// property. A plot running on the positional fallback still has a stable
// ID for the session, but the submission record needs a declared one.
func checkIdentifier(feature *Feature) Step {
	for _, key := range []string{KeyPlotID, KeySecondaryID} {
		if v, ok := feature.Property(key); ok && stringify(v) != "" {
			return Step{Name: StepIdentifier, Passed: true}
		}
	}
	return Step{
		Name:    StepIdentifier,
		Passed:  false,
		Message: fmt.Sprintf("missing plot identifier: no %q or %q property", KeyPlotID, KeySecondaryID),
	}
}

// checkDeclaredArea coerces the declared area to a number and requires it
// to be finite and strictly positive. A plot without a declared area
// passes: the area declaration is optional, but when present it must be
// usable.
func checkDeclaredArea(feature *Feature) Step {
	v, ok := feature.Property(KeyArea)
	if !ok {
		return Step{Name: StepDeclaredArea, Passed: true}
	}

	area, ok := coerceNumber(v)
	if !ok {
		return Step{
			Name:    StepDeclaredArea,
			Passed:  false,
			Message: fmt.Sprintf("declared area %v is not a number", v),
		}
	}
	if !isFiniteNumber(area) || area <= 0 {
		return Step{
			Name:    StepDeclaredArea,
			Passed:  false,
			Message: fmt.Sprintf("declared area must be a positive number of hectares, got %v", v),
		}
	}
	return Step{Name: StepDeclaredArea, Passed: true}
}

// checkProducerCountry requires a producer country property matching the
// configured ISO 3166-1 alpha-2 table. Matching is case-insensitive; the
// canonical form is uppercase.
func checkProducerCountry(feature *Feature, cfg Config) Step {
	v, ok := feature.Property(KeyProducerCountry)
	if !ok {
		return Step{
			Name:    StepProducerCountry,
			Passed:  false,
			Message: fmt.Sprintf("missing %q property", KeyProducerCountry),
		}
	}

	code, isString := v.(string)
	if !isString {
		return Step{
			Name:    StepProducerCountry,
			Passed:  false,
			Message: fmt.Sprintf("producer country %v is not a country code string", v),
		}
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !cfg.KnownCountry(normalized) {
		return Step{
			Name:    StepProducerCountry,
			Passed:  false,
			Message: fmt.Sprintf("producer country %q is not an ISO 3166-1 alpha-2 code", code),
		}
	}
	return Step{Name: StepProducerCountry, Passed: true}
}

// declaredArea returns the plot's declared area in hectares when it is
// present and usable. The geometry validator consumes this for the
// area-consistency comparison.
func declaredArea(feature *Feature) (float64, bool) {
	v, ok := feature.Property(KeyArea)
	if !ok {
		return 0, false
	}
	area, ok := coerceNumber(v)
	if !ok || !isFiniteNumber(area) || area <= 0 {
		return 0, false
	}
	return area, true
}

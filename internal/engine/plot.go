package engine

// ValidatePlot composes the attribute and geometry checks for one plot
// into a single ordered step list and derives the aggregated result.
//
// The result is deterministic: identical feature input always yields an
// identical result. There is no hidden state, randomness, or
// time-dependence, which is what makes per-plot validation safe to run in
// parallel across a collection.
func ValidatePlot(feature *Feature, cfg Config) PlotResult {
	steps := ValidateAttributes(feature, cfg)
	steps = append(steps, ValidateGeometry(feature, cfg)...)

	errors := make([]string, 0)
	for _, step := range steps {
		if !step.Passed {
			errors = append(errors, step.Message)
		}
	}

	return PlotResult{
		PlotID:  feature.PlotID,
		Label:   feature.Label,
		IsValid: len(errors) == 0,
		Errors:  errors,
		Steps:   steps,
	}
}

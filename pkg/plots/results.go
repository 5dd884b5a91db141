package plots

import (
	"github.com/destinpq/eudr-plots/internal/engine"
)

// Step is one named check outcome for a plot. Steps are ordered
// (attribute checks first, then geometry checks) so a UI can render
// step-by-step feedback; a failed step carries a human-readable message.
type Step struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// PlotResult is the full diagnostic record for one plot: the ordered step
// list, the aggregated verdict, and the failed-step messages.
type PlotResult struct {
	PlotID  string   `json:"plotId"`
	Label   string   `json:"label,omitempty"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Steps   []Step   `json:"steps"`
}

// Summary aggregates a validation run across all plots.
type Summary struct {
	TotalCount int `json:"totalCount"`
	ValidCount int `json:"validCount"`
	// TopErrors lists the most frequent error messages across all plots,
	// for at-a-glance diagnosis.
	TopErrors []string `json:"topErrors"`
	// CollectionErrors are collection-level defects such as duplicate
	// plot identifiers. They gate the collection like per-plot errors.
	CollectionErrors []string `json:"collectionErrors,omitempty"`
	// Warnings are advisory findings (overlapping plot bounds) that do
	// not gate the collection.
	Warnings []string `json:"warnings,omitempty"`
}

// Report is the complete output of one validation run: per-plot results
// in file order plus the collection summary. It is plain,
// JSON-serializable data, consumable directly by a presentation layer or
// a submission collaborator.
type Report struct {
	Results []PlotResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// Valid reports the all-or-nothing gating decision: true only when every
// plot is valid and no collection-level errors exist. There is no
// partial-pass mode.
func (r *Report) Valid() bool {
	if len(r.Summary.CollectionErrors) > 0 {
		return false
	}
	for _, result := range r.Results {
		if !result.IsValid {
			return false
		}
	}
	return true
}

// ValidatedPlotIDs returns the plot IDs cleared for submission: every
// plot's ID when the collection fully passed, nil otherwise. A partially
// valid collection yields nothing; the submission collaborator must not
// accept a filtered subset.
func (r *Report) ValidatedPlotIDs() []string {
	if !r.Valid() {
		return nil
	}
	ids := make([]string, len(r.Results))
	for i, result := range r.Results {
		ids[i] = result.PlotID
	}
	return ids
}

func convertReport(report *engine.Report) *Report {
	results := make([]PlotResult, len(report.Results))
	for i, result := range report.Results {
		steps := make([]Step, len(result.Steps))
		for j, step := range result.Steps {
			steps[j] = Step(step)
		}
		results[i] = PlotResult{
			PlotID:  result.PlotID,
			Label:   result.Label,
			IsValid: result.IsValid,
			Errors:  result.Errors,
			Steps:   steps,
		}
	}
	return &Report{
		Results: results,
		Summary: Summary{
			TotalCount:       report.Summary.TotalCount,
			ValidCount:       report.Summary.ValidCount,
			TopErrors:        report.Summary.TopErrors,
			CollectionErrors: report.Summary.CollectionErrors,
			Warnings:         report.Summary.Warnings,
		},
	}
}

// RunState tracks a session's validation lifecycle:
// Unvalidated → Validating → AllValid or HasErrors. A session returns to
// Unvalidated only when a patch mutates its plots.
type RunState int

const (
	// StateUnvalidated means no run has happened since the last mutation.
	StateUnvalidated RunState = RunState(engine.StateUnvalidated)
	// StateValidating means a run is in progress.
	StateValidating RunState = RunState(engine.StateValidating)
	// StateAllValid means the last run passed the all-or-nothing gate.
	StateAllValid RunState = RunState(engine.StateAllValid)
	// StateHasErrors means the last run found at least one defect.
	StateHasErrors RunState = RunState(engine.StateHasErrors)
)

// String returns the human-readable name of the run state.
func (s RunState) String() string {
	return engine.RunState(s).String()
}

package engine

import (
	"sort"
)

// Step is one named check outcome. Steps are ordered and drive
// step-by-step UI feedback; a failed step carries a human-readable
// message.
type Step struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// PlotResult is the full diagnostic record for one plot.
type PlotResult struct {
	PlotID  string   `json:"plotId"`
	Label   string   `json:"label,omitempty"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Steps   []Step   `json:"steps"`
}

// Summary aggregates a validation run across all plots.
type Summary struct {
	TotalCount int      `json:"totalCount"`
	ValidCount int      `json:"validCount"`
	// TopErrors lists the most frequent error messages across all plots,
	// for at-a-glance diagnosis.
	TopErrors []string `json:"topErrors"`
	// CollectionErrors are collection-level defects such as duplicate
	// plot identifiers. They gate the collection like per-plot errors do.
	CollectionErrors []string `json:"collectionErrors,omitempty"`
	// Warnings are advisory findings (overlapping plot bounds). They do
	// not gate the collection.
	Warnings []string `json:"warnings,omitempty"`
}

// Report is the complete output of one collection validation run. It is
// plain, JSON-serializable data, consumable directly by a presentation
// layer or a submission collaborator.
type Report struct {
	Results []PlotResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// Valid reports the all-or-nothing gating decision: every plot valid and
// no collection-level errors. There is no partial-pass mode.
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

// ValidatedPlotIDs returns the plot IDs cleared for submission. The list
// is non-empty only when the whole collection is valid, and then contains
// every plot's ID rather than a filtered subset: partial validity is
// intentionally not sufficient for a submission to proceed.
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

// maxTopErrors caps the at-a-glance error list in the summary.
const maxTopErrors = 5

// topErrors ranks error messages by frequency across all plots.
// Ties break lexicographically so identical input yields identical output.
func topErrors(results []PlotResult) []string {
	counts := make(map[string]int)
	for _, result := range results {
		for _, msg := range result.Errors {
			counts[msg]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	messages := make([]string, 0, len(counts))
	for msg := range counts {
		messages = append(messages, msg)
	}
	sort.Slice(messages, func(i, j int) bool {
		if counts[messages[i]] != counts[messages[j]] {
			return counts[messages[i]] > counts[messages[j]]
		}
		return messages[i] < messages[j]
	})

	if len(messages) > maxTopErrors {
		messages = messages[:maxTopErrors]
	}
	return messages
}

// RunState tracks a session's validation lifecycle.
type RunState int

const (
	// StateUnvalidated means no run has happened since the last mutation.
	StateUnvalidated RunState = iota
	// StateValidating means a run is in progress.
	StateValidating
	// StateAllValid means the last run passed the all-or-nothing gate.
	StateAllValid
	// StateHasErrors means the last run found at least one defect.
	StateHasErrors
)

// String returns the human-readable name of the run state.
func (s RunState) String() string {
	switch s {
	case StateUnvalidated:
		return "Unvalidated"
	case StateValidating:
		return "Validating"
	case StateAllValid:
		return "AllValid"
	case StateHasErrors:
		return "HasErrors"
	default:
		return "Unknown"
	}
}

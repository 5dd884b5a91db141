package engine

import (
	"fmt"
	"runtime"
	"sync"
)

// ValidateOptions controls how a collection run executes. The output is
// identical either way; parallelism only changes wall-clock time.
type ValidateOptions struct {
	// Parallel enables concurrent per-plot validation.
	Parallel bool

	// Workers is the number of validation goroutines when Parallel is
	// true. If 0, defaults to runtime.NumCPU().
	Workers int
}

// DefaultValidateOptions returns options suitable for typical collections.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		Parallel: true,
		Workers:  runtime.NumCPU(),
	}
}

// ValidateCollection runs the per-plot validator over every feature,
// order-preserving, and aggregates the results into a report.
//
// Per-plot validation is side-effect-free and depends only on its input
// feature, so large collections are validated by a worker pool; result
// aggregation restores the original feature order so diagnostics map
// predictably back to UI rows. Inputs are treated as immutable for the
// duration of the call.
func ValidateCollection(features []*Feature, cfg Config, opts ValidateOptions) *Report {
	var results []PlotResult
	if opts.Parallel && len(features) > 1 {
		results = validateParallel(features, cfg, opts.Workers)
	} else {
		results = make([]PlotResult, len(features))
		for i, feature := range features {
			results[i] = ValidatePlot(feature, cfg)
		}
	}

	validCount := 0
	for _, result := range results {
		if result.IsValid {
			validCount++
		}
	}

	return &Report{
		Results: results,
		Summary: Summary{
			TotalCount:       len(features),
			ValidCount:       validCount,
			TopErrors:        topErrors(results),
			CollectionErrors: duplicatePlotIDs(features),
			Warnings:         overlapWarnings(features),
		},
	}
}

// validateParallel fans plots out to a worker pool and collects results
// back into input order.
func validateParallel(features []*Feature, cfg Config, workers int) []PlotResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(features) {
		workers = len(features)
	}

	type indexed struct {
		index  int
		result PlotResult
	}

	jobs := make(chan int, len(features))
	out := make(chan indexed, len(features))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				out <- indexed{index: index, result: ValidatePlot(features[index], cfg)}
			}
		}()
	}

	for i := range features {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]PlotResult, len(features))
	for item := range out {
		results[item.index] = item.result
	}
	return results
}

// duplicatePlotIDs reports identifiers shared by more than one feature.
// A duplicate makes identity-preserving patches ambiguous, so it gates
// the collection like a per-plot error does.
func duplicatePlotIDs(features []*Feature) []string {
	counts := make(map[string]int, len(features))
	order := make([]string, 0, len(features))
	for _, feature := range features {
		if counts[feature.PlotID] == 0 {
			order = append(order, feature.PlotID)
		}
		counts[feature.PlotID]++
	}

	var errors []string
	for _, id := range order {
		if counts[id] > 1 {
			errors = append(errors, fmt.Sprintf("duplicate plot id %q used by %d plots", id, counts[id]))
		}
	}
	return errors
}

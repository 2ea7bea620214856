package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
)

// Emitter renders the enriched, sorted record set into one report artifact.
// The report package provides the CSV, HTML and Moxfield implementations.
type Emitter interface {
	// Name identifies the emitter in logs and warnings.
	Name() string
	// Emit writes the artifact and returns its path.
	Emit(records []EnrichedRecord) (string, error)
}

// RunOptions bundles everything one pipeline run needs. Records carry the
// normalized input; Rejects the validation errors the normalizer collected.
type RunOptions struct {
	Records []RawItemRecord
	Rejects []error

	Source   MetadataSource
	Resolver LocationResolver
	Enrich   EnrichOptions

	Spec     SortSpec
	Emitters []Emitter
}

// Run executes the pipeline: enrich, sort, emit. Validation and lookup
// failures are recorded in the Result and never abort the run. A failing
// emitter is terminal for that artifact only; the remaining emitters still
// run and the joined emit errors are returned alongside the Result, with
// already-written artifacts left in place.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	result := &Result{Rejected: len(opts.Rejects)}
	for _, reject := range opts.Rejects {
		result.Warnings = append(result.Warnings, reject.Error())
	}

	enriched, stats, err := Enrich(ctx, opts.Records, opts.Source, opts.Resolver, opts.Enrich)
	if err != nil {
		return nil, fmt.Errorf("enrichment aborted: %w", err)
	}

	result.Processed = len(enriched)
	result.Degraded = stats.Degraded
	result.Unassigned = stats.Unassigned
	result.LookupsFailed = stats.LookupsFailed
	result.Warnings = append(result.Warnings, stats.Warnings...)

	SortRecords(enriched, opts.Spec)
	result.Records = enriched

	var emitErrs []error
	for _, emitter := range opts.Emitters {
		path, err := emitter.Emit(enriched)
		if err != nil {
			slog.Error("Report emitter failed", "emitter", emitter.Name(), "error", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s report failed: %v", emitter.Name(), err))
			emitErrs = append(emitErrs, fmt.Errorf("%s: %w", emitter.Name(), err))
			continue
		}
		result.Artifacts = append(result.Artifacts, path)
	}

	return result, stdErrors.Join(emitErrs...)
}

package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/cardshed/pickwick/internal/config"
	"github.com/cardshed/pickwick/internal/locations"
	"github.com/cardshed/pickwick/internal/pipeline"
	"github.com/cardshed/pickwick/internal/report"
	"github.com/cardshed/pickwick/internal/scryfall"
)

// ReportOptions configures one report run shared by the orders and picklist
// commands.
type ReportOptions struct {
	// Label names the run for filenames and the HTML header, e.g.
	// "orders_unshipped" or "picklist".
	Label string
	// Preset picks a named sort preset; empty uses the configured default.
	Preset string
	// SortBy overrides the preset with explicit sort keys.
	SortBy []string
	// Moxfield also writes the Moxfield collection export.
	Moxfield bool

	Source   pipeline.MetadataSource
	Resolver pipeline.LocationResolver

	// Now is injectable for tests; nil uses time.Now.
	Now func() time.Time
}

// DefaultEnrichSetup builds the production metadata source and location
// resolver from config.
func DefaultEnrichSetup() (pipeline.MetadataSource, pipeline.LocationResolver, error) {
	mapping, err := locations.Load(viper.GetString("locations.file"))
	if err != nil {
		return nil, nil, err
	}
	client := scryfall.NewClient(scryfall.WithImageRefresh(config.UpdateImages))
	return client, mapping, nil
}

// ResolveSortSpec turns the command's sort flags into a SortSpec. Explicit
// keys win over the preset; an empty preset falls back to the configured
// default and then the built-in one. Errors here surface before any order
// is fetched or row parsed.
func ResolveSortSpec(preset string, sortBy []string) (pipeline.SortSpec, error) {
	if len(sortBy) > 0 {
		return pipeline.ParseSortSpec(sortBy)
	}

	presets, err := pipeline.LoadPresets(viper.GetString("sort.presetsfile"))
	if err != nil {
		return pipeline.SortSpec{}, err
	}

	name := preset
	if name == "" {
		name = viper.GetString("sort.default")
	}
	if name == "" {
		name = pipeline.DefaultPreset
	}
	return presets.Spec(name)
}

// RunReport runs the full pipeline over the given records and writes the
// reports: resolve the sort spec, enrich, sort, emit, persist the run to the
// history database, log the summary and the high-value reminder.
func RunReport(ctx context.Context, records []pipeline.RawItemRecord, rejects []error, opts ReportOptions) (*pipeline.Result, error) {
	spec, err := ResolveSortSpec(opts.Preset, opts.SortBy)
	if err != nil {
		return nil, err
	}

	dirs, err := SetupReportDirs()
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	runAt := now()
	stem := report.Stem(runAt, opts.Label)

	imagesEnabled := viper.GetBool("images.enabled")
	threshold := viper.GetFloat64("report.highvalue")
	overwrite := config.OverwriteFiles

	emitters := []pipeline.Emitter{
		&report.CSVEmitter{Dir: dirs.CSV, Stem: stem, Overwrite: overwrite},
		&report.HTMLEmitter{
			Dir:            dirs.HTML,
			Stem:           stem,
			Overwrite:      overwrite,
			FilterLabel:    opts.Label,
			Threshold:      threshold,
			UseLocalImages: imagesEnabled,
			Now:            now,
		},
	}
	if opts.Moxfield {
		emitters = append(emitters, &report.MoxfieldEmitter{Dir: dirs.Export, Stem: stem, Overwrite: overwrite})
	}

	result, runErr := pipeline.Run(ctx, pipeline.RunOptions{
		Records:  records,
		Rejects:  rejects,
		Source:   opts.Source,
		Resolver: opts.Resolver,
		Enrich: pipeline.EnrichOptions{
			DownloadImages: imagesEnabled,
			ImageDir:       dirs.Images,
		},
		Spec:     spec,
		Emitters: emitters,
	})
	if result == nil {
		return nil, runErr
	}

	if err := WriteHistory(result.Records, runAt); err != nil {
		slog.Warn("Failed to write pick history", "error", err)
	}

	logSummary(result, spec)
	logHighValueReminder(result, threshold)

	return result, runErr
}

func logSummary(result *pipeline.Result, spec pipeline.SortSpec) {
	slog.Info("Report run complete",
		"processed", result.Processed,
		"rejected", result.Rejected,
		"degraded", result.Degraded,
		"unassigned", result.Unassigned,
		"lookups_failed", result.LookupsFailed,
		"total_value", fmt.Sprintf("$%.2f", result.TotalValue()),
		"sort", spec.String())
	for _, warning := range result.Warnings {
		slog.Warn(warning)
	}
	for _, artifact := range result.Artifacts {
		slog.Info("Report written", "path", artifact)
	}
}

// logHighValueReminder lists the expensive items so the seller remembers to
// pull them from the binder instead of the bulk boxes.
func logHighValueReminder(result *pipeline.Result, threshold float64) {
	items := result.HighValueItems(threshold)
	if len(items) == 0 {
		return
	}

	slog.Info("High-value items in this run, check the binder", "threshold", fmt.Sprintf("$%.2f", threshold), "count", len(items))
	for _, item := range items {
		slog.Info("High-value item",
			"name", item.Name,
			"set", item.SetCode,
			"price", fmt.Sprintf("$%.2f", item.Price),
			"location", item.Location)
	}
}

// Package cmdutil carries the shared plumbing of the report commands:
// output directory setup and the per-run pick history written to SQLite.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ReportDirs holds the output directories the report emitters write into.
type ReportDirs struct {
	CSV    string
	HTML   string
	Export string
	Images string
}

// SetupReportDirs resolves the output directories from config and creates
// them. The image directory is only created when image caching is enabled.
func SetupReportDirs() (ReportDirs, error) {
	dirs := ReportDirs{
		CSV:    viper.GetString("output.csvdir"),
		HTML:   viper.GetString("output.htmldir"),
		Export: viper.GetString("output.exportdir"),
		Images: viper.GetString("images.dir"),
	}

	required := []string{dirs.CSV, dirs.HTML, dirs.Export}
	if viper.GetBool("images.enabled") {
		required = append(required, dirs.Images)
	}

	for _, dir := range required {
		if dir == "" {
			return ReportDirs{}, fmt.Errorf("output directory not configured (check the output.* keys)")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ReportDirs{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	return dirs, nil
}

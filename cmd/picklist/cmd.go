// Package picklist implements the picklist report command: load a local
// picklist or ShipStation export CSV and write the pick reports.
package picklist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardshed/pickwick/internal/cmdutil"
	"github.com/cardshed/pickwick/internal/pipeline"
)

// Cmd represents the picklist command.
type Cmd struct {
	File     string   `arg:"" optional:"" help:"Path to a picklist or ShipStation export CSV"`
	Latest   bool     `help:"Use the newest export CSV in the downloads directory"`
	Fetch    bool     `help:"Log into ShipStation and download a fresh shipment export"`
	Moxfield bool     `help:"Also write a Moxfield collection export"`
	Headless bool     `help:"Run the --fetch browser headless" default:"true"`
	Sort     string   `help:"Named sort preset (overrides sort.default)"`
	SortBy   []string `help:"Explicit sort keys, up to three, field or field:desc (overrides any preset)"`
}

var fetchExport = AutomateShipStationExport

func (c *Cmd) Run() error {
	ctx := context.Background()

	path, err := c.resolveInput(ctx)
	if err != nil {
		return err
	}
	slog.Info("Loading picklist", "path", path)

	records, rejects, err := pipeline.LoadCSV(path)
	if err != nil {
		return err
	}

	source, resolver, err := cmdutil.DefaultEnrichSetup()
	if err != nil {
		return err
	}

	_, err = cmdutil.RunReport(ctx, records, rejects, cmdutil.ReportOptions{
		Label:    "picklist",
		Preset:   c.Sort,
		SortBy:   c.SortBy,
		Moxfield: c.Moxfield,
		Source:   source,
		Resolver: resolver,
	})
	return err
}

// resolveInput decides where the CSV comes from: an explicit path wins, then
// --fetch, then --latest.
func (c *Cmd) resolveInput(ctx context.Context) (string, error) {
	if c.File != "" {
		return c.File, nil
	}

	if c.Fetch {
		return fetchExport(ctx, AutomationOptions{
			Email:       viper.GetString("shipstation.email"),
			Password:    viper.GetString("shipstation.password"),
			DownloadDir: viper.GetString("downloads.dir"),
			Headless:    c.Headless,
		})
	}

	if c.Latest {
		return findLatestExport(viper.GetString("downloads.dir"))
	}

	return "", fmt.Errorf("no input: provide a CSV path, --latest or --fetch")
}

// findLatestExport returns the newest picklist or ShipStation export CSV in
// the downloads directory, matched by filename.
func findLatestExport(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("downloads.dir is not configured")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read downloads directory: %w", err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !isExportName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = entry.Name()
			newestMod = mod
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no picklist or shipstation export CSV found in %s", dir)
	}

	path := filepath.Join(dir, newest)
	slog.Info("Using latest export", "path", path)
	return path, nil
}

func isExportName(name string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".csv") {
		return false
	}
	return strings.Contains(lower, "shipstation") ||
		strings.Contains(lower, "shipment") ||
		strings.Contains(lower, "picklist")
}

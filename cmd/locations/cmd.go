// Package locations implements the locations command group for maintaining
// the set-code to storage-location mapping.
package locations

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	locmap "github.com/cardshed/pickwick/internal/locations"
	"github.com/cardshed/pickwick/internal/pipeline"
	"github.com/cardshed/pickwick/internal/tui"
)

// Cmd represents the locations command and its subcommands.
type Cmd struct {
	List   ListCmd   `cmd:"" help:"List the set to location assignments"`
	Assign AssignCmd `cmd:"" help:"Assign a location to a set code"`
	Fill   FillCmd   `cmd:"" help:"Interactively assign locations to every unassigned set in a CSV"`
}

func loadMapping() (*locmap.Mapping, error) {
	return locmap.Load(viper.GetString("locations.file"))
}

// ListCmd prints the current assignments.
type ListCmd struct {
	out io.Writer
}

func (c *ListCmd) Run() error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	mapping, err := loadMapping()
	if err != nil {
		return err
	}
	if mapping.Len() == 0 {
		slog.Info("No locations assigned yet", "file", mapping.Path())
		return nil
	}

	for _, set := range mapping.Sets() {
		fmt.Fprintf(out, "%-6s %s\n", set, mapping.Resolve(set))
	}
	return nil
}

// AssignCmd sets one assignment and persists immediately.
type AssignCmd struct {
	Set      string `arg:"" help:"Set code, e.g. NEO"`
	Location string `arg:"" help:"Storage location, e.g. 'Drawer 12'"`
}

func (c *AssignCmd) Run() error {
	mapping, err := loadMapping()
	if err != nil {
		return err
	}
	return mapping.Assign(c.Set, c.Location)
}

// FillCmd walks every set code in a CSV that has no location and assigns one
// through the interactive picker.
type FillCmd struct {
	Input string `arg:"" help:"Picklist or ShipStation export CSV to take set codes from"`
}

var pickLocation = tui.PickLocation

func (c *FillCmd) Run() error {
	mapping, err := loadMapping()
	if err != nil {
		return err
	}

	records, _, err := pipeline.LoadCSV(c.Input)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(records))
	for _, record := range records {
		sets = append(sets, record.SetCode)
	}

	missing := mapping.Missing(sets)
	if len(missing) == 0 {
		slog.Info("Every set in the file already has a location", "file", c.Input)
		return nil
	}
	slog.Info("Sets without a location", "count", len(missing))

	assigned := 0
	for _, set := range missing {
		result, err := pickLocation(set, mapping.Labels())
		if err != nil {
			return err
		}

		switch result.Action {
		case tui.ActionAssign:
			if err := mapping.Assign(set, result.Location); err != nil {
				return err
			}
			assigned++
		case tui.ActionSkip:
			slog.Info("Skipped", "set", set)
		default:
			slog.Info("Stopped", "assigned", assigned)
			return nil
		}
	}

	slog.Info("Fill complete", "assigned", assigned)
	return nil
}

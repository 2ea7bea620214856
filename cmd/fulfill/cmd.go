// Package fulfill implements the fulfill command: list the orders that still
// need to be picked and shipped, and bulk-advance their fulfillment status.
package fulfill

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cardshed/pickwick/internal/errors"
	"github.com/cardshed/pickwick/internal/manapool"
)

// Cmd represents the fulfill command.
type Cmd struct {
	Status   string `help:"Status to set: processing or shipped" enum:"processing,shipped" default:"shipped"`
	Tracking string `help:"Tracking number applied to every selected order"`

	in  io.Reader
	out io.Writer
}

// orderUpdater is the slice of the ManaPool client this command needs.
type orderUpdater interface {
	ListOrders(ctx context.Context) ([]manapool.OrderSummary, error)
	UpdateFulfillment(ctx context.Context, orderID string, update manapool.FulfillmentUpdate) error
}

var newClient = func() (orderUpdater, error) {
	return manapool.NewClientFromConfig()
}

func (c *Cmd) Run() error {
	client, err := newClient()
	if err != nil {
		return err
	}
	return c.run(context.Background(), client)
}

func (c *Cmd) run(ctx context.Context, client orderUpdater) error {
	in := c.in
	if in == nil {
		in = os.Stdin
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	summaries, err := client.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	var candidates []manapool.OrderSummary
	for _, summary := range summaries {
		if summary.NeedsFulfillment() {
			candidates = append(candidates, summary)
		}
	}
	if len(candidates) == 0 {
		slog.Info("No orders need fulfillment")
		return nil
	}

	for i, summary := range candidates {
		label := summary.Label
		if label == "" {
			label = summary.ID
		}
		fmt.Fprintf(out, "%3d  %-16s %-12s $%8.2f\n", i+1, label, summary.Status(), summary.Total())
	}
	fmt.Fprintf(out, "\nMark which orders as %s? (e.g. 1 3 5, 1-4, all; empty cancels): ", c.Status)

	scanner := bufio.NewScanner(in)
	var line string
	if scanner.Scan() {
		line = scanner.Text()
	}

	selected, err := parseSelection(line, len(candidates))
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		slog.Info("Nothing selected")
		return nil
	}

	update := manapool.NewFulfillmentUpdate(c.Status, c.Tracking)
	updated := 0
	failed := 0
	for _, idx := range selected {
		summary := candidates[idx-1]
		if err := client.UpdateFulfillment(ctx, summary.ID, update); err != nil {
			if errors.IsStopProcessingError(err) {
				return err
			}
			slog.Error("Fulfillment update failed", "order", summary.ID, "error", err)
			failed++
			continue
		}
		slog.Info("Order updated", "order", summary.ID, "status", c.Status)
		updated++
	}

	slog.Info("Fulfillment run complete", "updated", updated, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d fulfillment updates failed", failed, len(selected))
	}
	return nil
}

// parseSelection parses a 1-based order selection: space or comma separated
// numbers, a-b ranges, or "all". Empty input selects nothing. Duplicates
// collapse, order of first mention is kept.
func parseSelection(input string, max int) ([]int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if strings.EqualFold(input, "all") {
		selected := make([]int, max)
		for i := range selected {
			selected[i] = i + 1
		}
		return selected, nil
	}

	seen := make(map[int]bool)
	var selected []int
	add := func(n int) error {
		if n < 1 || n > max {
			return fmt.Errorf("selection %d is out of range 1-%d", n, max)
		}
		if !seen[n] {
			seen[n] = true
			selected = append(selected, n)
		}
		return nil
	}

	for _, token := range strings.FieldsFunc(input, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' }) {
		if from, to, ok := strings.Cut(token, "-"); ok {
			start, err := strconv.Atoi(from)
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", token)
			}
			end, err := strconv.Atoi(to)
			if err != nil {
				return nil, fmt.Errorf("invalid selection %q", token)
			}
			if end < start {
				return nil, fmt.Errorf("invalid range %q", token)
			}
			for n := start; n <= end; n++ {
				if err := add(n); err != nil {
					return nil, err
				}
			}
			continue
		}

		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", token)
		}
		if err := add(n); err != nil {
			return nil, err
		}
	}

	return selected, nil
}

// Package orders implements the orders report command: fetch seller orders
// from ManaPool, enrich them and write the pick reports.
package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardshed/pickwick/internal/cmdutil"
	"github.com/cardshed/pickwick/internal/errors"
	"github.com/cardshed/pickwick/internal/manapool"
	"github.com/cardshed/pickwick/internal/pipeline"
)

// Order filter values.
const (
	FilterUnshipped = "unshipped"
	FilterShipped   = "shipped"
	FilterAll       = "all"
)

// Cmd represents the orders command.
type Cmd struct {
	Filter   string   `help:"Which orders to report: unshipped, shipped or all" enum:"unshipped,shipped,all" default:"unshipped"`
	Moxfield bool     `help:"Also write a Moxfield collection export"`
	Sort     string   `help:"Named sort preset (overrides sort.default)"`
	SortBy   []string `help:"Explicit sort keys, up to three, field or field:desc (overrides any preset)"`
}

var newClient = func() (orderSource, error) {
	return manapool.NewClientFromConfig()
}

func (c *Cmd) Run() error {
	ctx := context.Background()

	client, err := newClient()
	if err != nil {
		return err
	}

	records, rejects, err := fetchOrderRecords(ctx, client, c.Filter)
	if err != nil {
		return err
	}
	if len(records) == 0 && len(rejects) == 0 {
		slog.Info("No orders matched the filter", "filter", c.Filter)
		return nil
	}

	source, resolver, err := cmdutil.DefaultEnrichSetup()
	if err != nil {
		return err
	}

	_, err = cmdutil.RunReport(ctx, records, rejects, cmdutil.ReportOptions{
		Label:    "orders_" + c.Filter,
		Preset:   c.Sort,
		SortBy:   c.SortBy,
		Moxfield: c.Moxfield,
		Source:   source,
		Resolver: resolver,
	})
	return err
}

// orderSource is the slice of the ManaPool client this command needs.
type orderSource interface {
	ListOrders(ctx context.Context) ([]manapool.OrderSummary, error)
	GetOrder(ctx context.Context, orderID string) (*manapool.Order, error)
}

func matchesFilter(summary manapool.OrderSummary, filter string) bool {
	switch filter {
	case FilterShipped:
		return summary.IsShipped()
	case FilterAll:
		return true
	default:
		return summary.NeedsFulfillment()
	}
}

// fetchOrderRecords lists the seller's orders, fetches the details of every
// order matching the filter and flattens them into records. An auth failure
// stops the batch; any other per-order failure becomes a reject and the
// remaining orders are still fetched.
func fetchOrderRecords(ctx context.Context, source orderSource, filter string) ([]pipeline.RawItemRecord, []error, error) {
	summaries, err := source.ListOrders(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var records []pipeline.RawItemRecord
	var rejects []error
	matched := 0

	for _, summary := range summaries {
		if !matchesFilter(summary, filter) {
			continue
		}
		matched++

		order, err := source.GetOrder(ctx, summary.ID)
		if err != nil {
			if errors.IsStopProcessingError(err) {
				return nil, nil, err
			}
			rejects = append(rejects, fmt.Errorf("order %s: %w", summary.ID, err))
			continue
		}

		orderRecords, orderRejects := pipeline.FromOrder(order)
		records = append(records, orderRecords...)
		rejects = append(rejects, orderRejects...)
	}

	slog.Info("Orders fetched", "filter", filter, "matched", matched, "records", len(records))
	return records, rejects, nil
}

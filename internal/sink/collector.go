package sink

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ibge-panorama/internal/assert"
	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/extract"
)

const (
	report_collector_flush = "collector.flush"
	report_collector_reset = "collector.reset"
)

// ErrOutOfOrder is returned by Flush when the pending records cannot follow
// what was already written, or repeat a position.
var ErrOutOfOrder = errors.New("records out of order")

// Output is a place records are persisted to.
type Output interface {
	// Reset removes anything a previous run left behind.
	Reset(ctx context.Context) error
	// Write appends records, already in their final order.
	Write(ctx context.Context, records []extract.Record) error
	Close() error
}

// Collector accumulates every record of a run and writes the ones not yet
// written on each Flush, ordered by unit then line.
type Collector struct {
	outputs []Output
	tel     telemetry.API

	records []extract.Record
	flushed int
}

func NewCollector(tel telemetry.API, outputs ...Output) *Collector {
	assert.NotNil(tel)
	for _, out := range outputs {
		assert.NotNil(out)
	}
	return &Collector{
		outputs: outputs,
		tel:     telemetry.NewScopedAPI("sink", tel),
	}
}

func (c *Collector) Append(records ...extract.Record) {
	c.records = append(c.records, records...)
}

// Records returns a copy of everything appended so far.
func (c *Collector) Records() []extract.Record {
	return append([]extract.Record(nil), c.records...)
}

// Pending is the number of appended records not written yet.
func (c *Collector) Pending() int {
	return len(c.records) - c.flushed
}

func before(a, b extract.Record) bool {
	if a.UnitIndex != b.UnitIndex {
		return a.UnitIndex < b.UnitIndex
	}
	return a.LineIndex < b.LineIndex
}

// Flush writes the pending records to every output. The pending batch is
// sorted first, a batch that would land before (or on) a record already
// written is refused with ErrOutOfOrder and stays pending.
func (c *Collector) Flush(ctx context.Context) error {
	pending := c.records[c.flushed:]
	sort.SliceStable(pending, func(i, j int) bool {
		return before(pending[i], pending[j])
	})

	for i, r := range pending {
		var prev extract.Record
		switch {
		case i > 0:
			prev = pending[i-1]
		case c.flushed > 0:
			prev = c.records[c.flushed-1]
		default:
			continue
		}
		if !before(prev, r) {
			err := fmt.Errorf("%w: unit %d line %d after unit %d line %d", ErrOutOfOrder, r.UnitIndex, r.LineIndex, prev.UnitIndex, prev.LineIndex)
			c.tel.ReportBroken(report_collector_flush, err)
			return err
		}
	}

	for _, out := range c.outputs {
		err := out.Write(ctx, pending)
		if err != nil {
			c.tel.ReportBroken(report_collector_flush, err)
			return fmt.Errorf("write records: %w", err)
		}
	}
	c.flushed = len(c.records)
	c.tel.ReportDebug("flushed", len(pending))
	return nil
}

// Reset drops the accumulated records and clears every output.
func (c *Collector) Reset(ctx context.Context) error {
	c.records = nil
	c.flushed = 0
	for _, out := range c.outputs {
		err := out.Reset(ctx)
		if err != nil {
			c.tel.ReportBroken(report_collector_reset, err)
			return fmt.Errorf("reset output: %w", err)
		}
	}
	return nil
}

func (c *Collector) Close() error {
	var errs []error
	for _, out := range c.outputs {
		errs = append(errs, out.Close())
	}
	return errors.Join(errs...)
}

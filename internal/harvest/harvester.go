package harvest

import (
	"context"
	"fmt"
	"strings"

	"ibge-panorama/internal/assert"
	"ibge-panorama/internal/catalog"
	"ibge-panorama/internal/components/chrono"
	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/extract"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ibge-panorama/harvest")
var meter = otel.Meter("ibge-panorama/harvest")

var unitsDone, _ = meter.Int64Counter("harvest.units.done")
var unitsSkipped, _ = meter.Int64Counter("harvest.units.skipped")
var recordsWritten, _ = meter.Int64Counter("harvest.records")

const (
	report_harvester_unit    = "harvester.unit"
	report_harvester_extract = "harvester.extract"
)

// DefaultDetailURL is the panorama page of a unit, {uf} is the division
// code and {slug} the unit's slug.
const DefaultDetailURL = "https://cidades.ibge.gov.br/brasil/{uf}/{slug}/panorama"

type UnitSource interface {
	Resolve(ctx context.Context, divisions []string) ([]catalog.Unit, error)
}

type DocumentSource interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type Sink interface {
	Reset(ctx context.Context) error
	Append(records ...extract.Record)
	Flush(ctx context.Context) error
}

type Harvester struct {
	units     UnitSource
	documents DocumentSource
	extractor extract.Extractor
	sink      Sink
	detailURL string
	time      chrono.API
	tel       telemetry.API

	// Observer, when set, sees every state a unit goes through.
	Observer func(unitIndex int, state State)
}

func NewHarvester(
	units UnitSource,
	documents DocumentSource,
	extractor extract.Extractor,
	sink Sink,
	detailURL string,
	clock chrono.API,
	tel telemetry.API,
) *Harvester {
	assert.NotNil(units)
	assert.NotNil(documents)
	assert.NotNil(sink)
	assert.NotNil(clock)
	assert.NotNil(tel)

	if detailURL == "" {
		detailURL = DefaultDetailURL
	}
	return &Harvester{
		units:     units,
		documents: documents,
		extractor: extractor,
		sink:      sink,
		detailURL: detailURL,
		time:      clock,
		tel:       telemetry.NewScopedAPI("harvest", tel),
	}
}

func (h *Harvester) enter(unitIndex int, state State) {
	h.tel.ReportDebug("unit state", unitIndex, state.String())
	if h.Observer != nil {
		h.Observer(unitIndex, state)
	}
}

// Run harvests every unit of the given divisions, one at a time, flushing
// the sink after each one. A unit that cannot be fetched is skipped, a
// catalog or sink failure ends the run.
func (h *Harvester) Run(ctx context.Context, divisions []string) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Harvester.Run")
	defer span.End()

	start := h.time.Now()
	var summary Summary

	err := h.sink.Reset(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("reset sink: %w", err)
	}

	units, err := h.units.Resolve(ctx, divisions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}
	summary.Units = len(units)
	span.SetAttributes(attribute.Int("units", len(units)))

	queue := make([]catalog.Unit, len(units))
	copy(queue, units)

	next := 0
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		unit := queue[0]
		queue = queue[1:]
		unitIndex := next
		next++

		h.tel.ReportInfo("processing unit", unit.Name)
		url := unit.DetailURL(h.detailURL)
		label := fmt.Sprintf("%s / %s", unit.Slug(), strings.ToUpper(unit.DivisionCode()))

		outcome, err := h.process(ctx, unitIndex, unit, url)
		if err != nil {
			return summary, err
		}

		switch outcome.Kind {
		case Done:
			h.enter(unitIndex, Accumulating)
			h.sink.Append(outcome.Records...)

			h.enter(unitIndex, Persisting)
			err = h.sink.Flush(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return summary, fmt.Errorf("persist %s: %w", label, err)
			}

			h.enter(unitIndex, Done)
			h.tel.ReportInfo("unit ok", label)
			unitsDone.Add(ctx, 1)
			recordsWritten.Add(ctx, int64(len(outcome.Records)))
			summary.Done++
			summary.Records += len(outcome.Records)
		case Skipped:
			h.enter(unitIndex, Skipped)
			h.tel.ReportBroken(report_harvester_unit, label, outcome.Reason)
			unitsSkipped.Add(ctx, 1)
			summary.Skipped++
			summary.SkippedUnits = append(summary.SkippedUnits, Skip{
				Index:  unitIndex,
				Unit:   unit,
				URL:    url,
				Reason: outcome.Reason,
			})
		}
	}

	// leaves an artifact behind even when no unit made it
	err = h.sink.Flush(ctx)
	if err != nil {
		return summary, fmt.Errorf("persist: %w", err)
	}

	summary.Elapsed = h.time.Now().Sub(start)
	h.tel.ReportInfo("run finished", summary.Elapsed.String())
	return summary, nil
}

// process fetches and extracts one unit. The error is only set when the run
// itself was cancelled, any other failure is a Skipped outcome.
func (h *Harvester) process(ctx context.Context, unitIndex int, unit catalog.Unit, url string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Harvester.process")
	defer span.End()
	span.SetAttributes(
		attribute.Int("unit_index", unitIndex),
		attribute.String("url", url),
	)

	h.enter(unitIndex, Fetching)
	body, err := h.documents.Get(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		span.SetStatus(codes.Error, err.Error())
		return Outcome{Kind: Skipped, Reason: err}, nil
	}

	h.enter(unitIndex, Extracting)
	result, err := h.extractor.Extract(body, unitIndex, unit.Name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{Kind: Skipped, Reason: err}, nil
	}
	if result.SummaryMissing {
		h.tel.ReportWarning(report_harvester_extract, "no summary region", url)
	}

	return Outcome{Kind: Done, Records: result.Records}, nil
}

package catalog

import (
	"context"
	"fmt"
	"strings"

	"ibge-panorama/internal/assert"
	"ibge-panorama/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ibge-panorama/catalog")

const (
	report_resolver_resolve = "resolver.resolve"
)

// DefaultURL is the catalog endpoint, {uf} is replaced by the division code.
const DefaultURL = "https://servicodados.ibge.gov.br/api/v1/localidades/estados/{uf}/municipios"

// FatalError means the catalog of a division could not be obtained, the run
// cannot go on with a partial catalog.
type FatalError struct {
	Code string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("resolve catalog of %s: %v", e.Code, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Source fetches and decodes a JSON document, retrying as it sees fit.
type Source interface {
	GetJSON(ctx context.Context, url string, out any) error
}

type Resolver struct {
	source   Source
	template string
	tel      telemetry.API
}

func NewResolver(source Source, template string, tel telemetry.API) Resolver {
	assert.NotNil(source)
	assert.NotNil(tel)
	if template == "" {
		template = DefaultURL
	}
	return Resolver{
		source:   source,
		template: template,
		tel:      telemetry.NewScopedAPI("catalog", tel),
	}
}

// URL returns the catalog endpoint of a division.
func (r Resolver) URL(code string) string {
	return strings.ReplaceAll(r.template, "{uf}", strings.ToLower(code))
}

// Resolve lists the units of every division, in the order the divisions are
// given and in the order the catalog returns them within a division.
func (r Resolver) Resolve(ctx context.Context, divisions []string) ([]Unit, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("divisions", divisions))

	var units []Unit
	for _, code := range divisions {
		r.tel.ReportInfo("resolving division", strings.ToUpper(code))

		var listed []Unit
		err := r.source.GetJSON(ctx, r.URL(code), &listed)
		if err != nil {
			fatal := &FatalError{Code: code, Err: err}
			span.RecordError(fatal)
			span.SetStatus(codes.Error, fatal.Error())
			r.tel.ReportBroken(report_resolver_resolve, fatal)
			return nil, fatal
		}

		for i := range listed {
			listed[i].RequestedCode = strings.ToLower(code)
		}
		units = append(units, listed...)
	}

	r.tel.ReportInfo("units resolved", len(units))
	span.SetAttributes(attribute.Int("units", len(units)))
	return units, nil
}

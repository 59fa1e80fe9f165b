package commands

import (
	"fmt"

	"ibge-panorama/internal/catalog"
	"ibge-panorama/internal/components/chrono"
	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/config"
	"ibge-panorama/internal/fetch"
	"ibge-panorama/lib/restyutil"
)

// app holds the pieces every command is built from.
type app struct {
	cfg      config.Config
	time     chrono.API
	tel      telemetry.API
	fetcher  *fetch.Fetcher
	resolver catalog.Resolver
}

func newApp(cfg config.Config) (app, error) {
	clock := chrono.NewStandardImpl()
	tel := telemetry.SlogAPI{}

	opts := fetch.Options{
		Timeout:           cfg.Timeout(),
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		CloudflareBypass:  cfg.CloudflareBypass,
		Policy:            cfg.Policy(),
	}
	if cfg.HttpDumpDir != "" {
		dump, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			return app{}, fmt.Errorf("http dump dir: %w", err)
		}
		opts.Dump = dump
	}

	fetcher := fetch.New(opts, clock, tel)
	return app{
		cfg:      cfg,
		time:     clock,
		tel:      tel,
		fetcher:  fetcher,
		resolver: catalog.NewResolver(fetcher, cfg.CatalogURL, tel),
	}, nil
}

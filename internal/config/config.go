package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ibge-panorama/internal/catalog"
	"ibge-panorama/internal/extract"
	"ibge-panorama/internal/fetch"
	"ibge-panorama/internal/harvest"
	"ibge-panorama/internal/sink"
	"ibge-panorama/lib/configutil"

	"dario.cat/mergo"
)

// FileName is looked up from the working directory upwards when no config
// path is given.
const FileName = "panorama.json5"

type RetryConfig struct {
	// Retries after the first attempt, a negative value disables retrying.
	Retries int     `json:"retries"`
	Base    float64 `json:"base"`
	UnitMs  int     `json:"unit_ms"`
}

type Config struct {
	Divisions  []string `json:"divisions"`
	CatalogURL string   `json:"catalog_url"`
	DetailURL  string   `json:"detail_url"`

	Output string `json:"output"`
	// SQLite, when set, mirrors the output into a database at this path.
	SQLite string `json:"sqlite"`

	TimeoutSeconds    int         `json:"timeout_seconds"`
	UserAgent         string      `json:"user_agent"`
	RequestsPerSecond float64     `json:"requests_per_second"`
	CloudflareBypass  bool        `json:"cloudflare_bypass"`
	Retry             RetryConfig `json:"retry"`

	// HttpDumpDir, when set, receives a dump of every HTTP exchange.
	HttpDumpDir string `json:"http_dump_dir"`

	Layout extract.Selectors `json:"layout"`
}

func Defaults() Config {
	policy := fetch.DefaultPolicy()
	return Config{
		Divisions:      []string{"mg", "pr", "sc", "rs"},
		CatalogURL:     catalog.DefaultURL,
		DetailURL:      harvest.DefaultDetailURL,
		Output:         sink.DefaultPath,
		TimeoutSeconds: 60,
		Retry: RetryConfig{
			Retries: policy.Retries,
			Base:    policy.Base,
			UnitMs:  int(policy.Unit / time.Millisecond),
		},
		Layout: extract.DefaultSelectors(),
	}
}

// Load reads the config at path over the defaults. With an empty path the
// default file is searched for and its absence is not an error.
func Load(path string) (Config, error) {
	var file Config
	var err error
	if path == "" {
		file, err = configutil.ReadRecursively[Config](FileName)
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
	} else {
		file, err = configutil.ReadConfig[Config](path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	err = mergo.Merge(&cfg, file, mergo.WithOverride)
	if err != nil {
		return Config{}, fmt.Errorf("merge config: %w", err)
	}
	return cfg, nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) Policy() fetch.Policy {
	policy := fetch.Policy{
		Retries: max(c.Retry.Retries, 0),
		Base:    c.Retry.Base,
		Unit:    time.Duration(c.Retry.UnitMs) * time.Millisecond,
	}
	if policy.Base <= 0 {
		policy.Base = fetch.DefaultPolicy().Base
	}
	if policy.Unit <= 0 {
		policy.Unit = fetch.DefaultPolicy().Unit
	}
	return policy
}

package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ibge-panorama/internal/catalog"
	"ibge-panorama/internal/extract"
	"ibge-panorama/internal/sink"

	"github.com/stretchr/testify/require"
)

const panorama = `<html><body>
<div class="topo">
  <p class="topo__titulo">Área territorial</p>
  <p class="topo__valor">331,354 km²</p>
</div>
<section class="resumo">
  <span class="resumo__titulo">População</span><span class="resumo__valor">2.315.560 pessoas</span>
</section>
</body></html>`

// ibgeServer stands in for the catalog and detail endpoints. Only mg has a
// catalog, any other division answers 404.
func ibgeServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/estados/mg/municipios", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 3106200, "nome": "Belo Horizonte", "microrregiao": {"mesorregiao": {"UF": {"sigla": "MG"}}}}]`))
	})
	mux.HandleFunc("/brasil/mg/belo-horizonte/panorama", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(panorama))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig points the endpoints at srv and disables retrying, extra is
// spliced into the top level object.
func writeConfig(t *testing.T, srv *httptest.Server, extra string) string {
	path := filepath.Join(t.TempDir(), "panorama.json5")
	content := fmt.Sprintf(`{
		// local stand-ins
		catalog_url: "%s/estados/{uf}/municipios",
		detail_url: "%s/brasil/{uf}/{slug}/panorama",
		divisions: ["sc"],
		output: "%s",
		%s
		retry: {retries: -1}
	}`, srv.URL, srv.URL, filepath.Join(t.TempDir(), "from-config.txt"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the command line and returns what it printed. Flag
// variables outlive a single execution, so they are cleared first.
func run(t *testing.T, args ...string) (string, error) {
	configPath, verbose, divisions = "", false, nil
	runOut, runDb = "", ""

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	err := execute(ctx, args)
	return stdout.String(), err
}

func TestRunAppliesFlagOverrides(t *testing.T) {
	srv := ibgeServer(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "resultado.txt")
	db := filepath.Join(dir, "results.db")

	// the config asks for sc, the flag narrows the run to mg and the layout
	// reads the summary from a custom region
	cfg := writeConfig(t, srv, `layout: {summary_root: "section.resumo", summary_key: ".resumo__titulo", summary_value: ".resumo__valor"},`)
	stdout, err := run(t, "run", "--config", cfg, "--division", "mg", "--out", out, "--db", db)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "unit display name;Belo Horizonte;\nPopulação;2.315.560 pessoas;\n", string(data))

	require.NotContains(t, stdout, "from-config.txt")
	require.Contains(t, stdout, "resultado.txt")

	mirror, err := sink.OpenSQLite(db)
	require.NoError(t, err)
	defer mirror.Close()
	records, err := mirror.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, extract.NameKey, records[0].Key)
	require.Equal(t, "População", records[1].Key)
}

func TestRunDefaultLayout(t *testing.T) {
	srv := ibgeServer(t)
	out := filepath.Join(t.TempDir(), "resultado.txt")

	_, err := run(t, "run", "--config", writeConfig(t, srv, ""), "-d", "mg", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "unit display name;Belo Horizonte;\nÁrea territorial;331,354 km²;\n", string(data))
}

func TestRunRejectsInvalidLayout(t *testing.T) {
	srv := ibgeServer(t)
	out := filepath.Join(t.TempDir(), "resultado.txt")

	_, err := run(t, "run", "--config", writeConfig(t, srv, `layout: {table_key: "td[["},`), "-d", "mg", "-o", out)
	require.ErrorContains(t, err, "invalid layout")
	require.ErrorContains(t, err, "table_key")
	require.NoFileExists(t, out)
}

func TestRunReturnsCatalogFailure(t *testing.T) {
	srv := ibgeServer(t)
	out := filepath.Join(t.TempDir(), "resultado.txt")
	db := filepath.Join(t.TempDir(), "results.db")

	// sc comes from the config and has no catalog
	_, err := run(t, "run", "--config", writeConfig(t, srv, ""), "-o", out, "--db", db)
	var fatal *catalog.FatalError
	require.True(t, errors.As(err, &fatal), "got %v", err)
	require.Equal(t, "sc", strings.ToLower(fatal.Code))

	// the mirror was closed on the way out and can be opened again
	mirror, err := sink.OpenSQLite(db)
	require.NoError(t, err)
	require.NoError(t, mirror.Close())
}

func TestUnitsListsDetailPages(t *testing.T) {
	srv := ibgeServer(t)

	stdout, err := run(t, "units", "--config", writeConfig(t, srv, ""), "--division", "mg")
	require.NoError(t, err)
	require.Contains(t, stdout, "Belo Horizonte")
	require.Contains(t, stdout, srv.URL+"/brasil/mg/belo-horizonte/panorama")
}

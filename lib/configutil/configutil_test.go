package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Output    string   `json:"output"`
	Divisions []string `json:"divisions"`
	Timeout   int      `json:"timeout_seconds"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "panorama.json5"), `{
		// comments are allowed
		output: "resultado.txt",
		divisions: ["mg", "pr"],
		timeout_seconds: 60,
	}`)
	writeFile(t, filepath.Join(dir, "panorama.local.json5"), `{ timeout_seconds: 5 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "panorama.json5"))
	require.NoError(t, err)
	require.Equal(t, "resultado.txt", cfg.Output)
	require.Equal(t, []string{"mg", "pr"}, cfg.Divisions)
	require.Equal(t, 5, cfg.Timeout)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "panorama.local.json5"), `{ output: "x.txt" }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "panorama.json5"))
	require.NoError(t, err)
	require.Equal(t, "x.txt", cfg.Output)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "panorama.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "panorama.json5"), `{ output: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "panorama.json5"))
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	writeFile(t, filepath.Join(root, "panorama.json5"), `{ output: "root.txt" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("panorama.json5")
	require.NoError(t, err)
	require.Equal(t, "root.txt", cfg.Output)
}

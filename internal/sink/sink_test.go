package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ibge-panorama/internal/components/telemetry"
	"ibge-panorama/internal/extract"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func rec(unit, line int, key, value string) extract.Record {
	return extract.Record{UnitIndex: unit, LineIndex: line, Key: key, Value: value}
}

func readFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTextFileDefaultPath(t *testing.T) {
	require.Equal(t, DefaultPath, NewTextFile("").Path())
	require.Equal(t, "out.txt", NewTextFile("out.txt").Path())
}

func TestTextFileIncrementalFlush(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "resultado.txt")
	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(path))

	require.NoError(t, collector.Reset(ctx))
	collector.Append(
		rec(0, 1, extract.NameKey, "Belo Horizonte"),
		rec(0, 2, "Population", "12,345"),
	)
	require.NoError(t, collector.Flush(ctx))
	require.Equal(t, "unit display name;Belo Horizonte;\nPopulation;12,345;\n", readFile(t, path))

	collector.Append(
		rec(1, 1, extract.NameKey, "Curitiba"),
		rec(1, 2, "Area", "100 km²"),
	)
	require.NoError(t, collector.Flush(ctx))
	require.Equal(t,
		"unit display name;Belo Horizonte;\nPopulation;12,345;\n"+
			"unit display name;Curitiba;\nArea;100 km²;\n",
		readFile(t, path),
	)
	require.Zero(t, collector.Pending())
	require.Len(t, collector.Records(), 4)
}

func TestFlushSortsPendingBatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")
	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(path))

	collector.Append(
		rec(1, 2, "b", "2"),
		rec(0, 2, "a", "2"),
		rec(1, 1, "b", "1"),
		rec(0, 1, "a", "1"),
	)
	require.NoError(t, collector.Flush(ctx))
	require.Equal(t, "a;1;\na;2;\nb;1;\nb;2;\n", readFile(t, path))
}

func TestFlushRefusesOutOfOrderBatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")
	rec0 := &telemetry.Recorder{}
	collector := NewCollector(rec0, NewTextFile(path))

	collector.Append(rec(3, 1, "k", "v"))
	require.NoError(t, collector.Flush(ctx))

	collector.Append(rec(2, 1, "late", "v"))
	err := collector.Flush(ctx)
	require.ErrorIs(t, err, ErrOutOfOrder)
	require.Equal(t, 1, collector.Pending())
	require.Equal(t, "k;v;\n", readFile(t, path))
	require.Len(t, rec0.Find(telemetry.REPORT_BROKEN, report_collector_flush), 1)
}

func TestFlushRefusesRepeatedPosition(t *testing.T) {
	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(filepath.Join(t.TempDir(), "out.txt")))
	collector.Append(rec(0, 1, "a", "1"), rec(0, 1, "a", "1"))
	require.ErrorIs(t, collector.Flush(context.Background()), ErrOutOfOrder)
}

func TestEmptyFlushCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(path))

	require.NoError(t, collector.Flush(context.Background()))
	require.Equal(t, "", readFile(t, path))
}

func TestResetRemovesPreviousArtifact(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale;line;\n"), 0644))

	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(path))
	collector.Append(rec(0, 1, "k", "v"))
	require.NoError(t, collector.Reset(ctx))
	require.Empty(t, collector.Records())

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// nothing to remove is fine too
	require.NoError(t, collector.Reset(ctx))
}

type failingOutput struct {
	writes int
}

func (f *failingOutput) Reset(context.Context) error { return nil }
func (f *failingOutput) Close() error                { return nil }
func (f *failingOutput) Write(context.Context, []extract.Record) error {
	f.writes++
	return errors.New("disk full")
}

func TestFlushOutputFailure(t *testing.T) {
	out := &failingOutput{}
	collector := NewCollector(&telemetry.Recorder{}, out)

	collector.Append(rec(0, 1, "k", "v"))
	err := collector.Flush(context.Background())
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, 1, out.writes)
	require.Equal(t, 1, collector.Pending())
}

func TestSQLiteMirror(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.txt")
	collector := NewCollector(&telemetry.Recorder{}, NewTextFile(path), db)
	defer func() {
		require.NoError(t, collector.Close())
	}()

	require.NoError(t, collector.Reset(ctx))
	collector.Append(
		rec(0, 2, "Population", "12,345"),
		rec(0, 1, extract.NameKey, "Belo Horizonte"),
	)
	require.NoError(t, collector.Flush(ctx))
	collector.Append(rec(1, 1, extract.NameKey, "Curitiba"))
	require.NoError(t, collector.Flush(ctx))

	stored, err := db.Records(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(collector.Records(), stored); diff != "" {
		t.Fatal(diff)
	}

	require.NoError(t, collector.Reset(ctx))
	stored, err = db.Records(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestSQLiteFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []extract.Record{rec(0, 1, extract.NameKey, "Porto Alegre")}))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	stored, err := db.Records(ctx)
	require.NoError(t, err)
	require.Equal(t, []extract.Record{rec(0, 1, extract.NameKey, "Porto Alegre")}, stored)
}

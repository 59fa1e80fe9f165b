package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	tel := NewScopedAPI("harvest", NewScopedAPI("unit", rec))

	tel.ReportBroken("fetch", fmt.Errorf("boom"))
	tel.ReportWarning("extract", "belo-horizonte")
	tel.ReportCount("done", 3)

	broken := rec.Reports(REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "unit: harvest: fetch", broken[0].Id)

	require.Len(t, rec.Find(REPORT_WARNING, "extract"), 1)
	counts := rec.Reports(REPORT_COUNT)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not here"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rec := &Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, noop.NewTracerProvider().Tracer("test"))

	_, err := client.R().SetContext(context.Background()).Get(srv.URL + "/ok")
	require.NoError(t, err)
	require.Len(t, rec.Find(REPORT_INFO, "request started"), 1)
	require.Len(t, rec.Find(REPORT_INFO, "request finished"), 1)
	require.Empty(t, rec.Reports(REPORT_WARNING))

	_, err = client.R().SetContext(context.Background()).Get(srv.URL + "/missing")
	require.NoError(t, err)
	warnings := rec.Find(REPORT_WARNING, report_resty_response)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Params, "not here")

	srv.Close()
	_, err = client.R().SetContext(context.Background()).Get(srv.URL + "/ok")
	require.Error(t, err)
	require.Len(t, rec.Find(REPORT_BROKEN, report_resty_response), 1)
}

func TestSampleRuntime(t *testing.T) {
	sample := SampleRuntime(context.Background())
	require.Greater(t, sample.Goroutines, int64(0))
	require.GreaterOrEqual(t, sample.AllocatedMB, int64(0))
}

func TestRecordRuntimeStats(t *testing.T) {
	rec := &Recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	RecordRuntimeStats(ctx, 10*time.Millisecond, rec)
	require.Eventually(t, func() bool {
		return len(rec.Find(REPORT_DEBUG, "runtime")) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var runtimeMeter = otel.Meter("ibge-panorama/runtime")
var cpuGauge, _ = runtimeMeter.Float64Gauge("runtime.cpu_percent")
var memoryGauge, _ = runtimeMeter.Int64Gauge("runtime.allocated_mb")
var goroutineGauge, _ = runtimeMeter.Int64Gauge("runtime.goroutines")

type RuntimeSample struct {
	// CPUPercent is the system wide usage since the previous sample, it is
	// negative when it could not be read.
	CPUPercent  float64
	AllocatedMB int64
	Goroutines  int64
}

// SampleRuntime reads the current process and system figures.
func SampleRuntime(ctx context.Context) RuntimeSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := RuntimeSample{
		CPUPercent:  -1,
		AllocatedMB: int64(memStats.Alloc / 1_000_000),
		Goroutines:  int64(runtime.NumGoroutine()),
	}
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(usage) > 0 {
		sample.CPUPercent = usage[0]
	}
	return sample
}

// RecordRuntimeStats samples the runtime every interval until ctx is done,
// the figures go to the runtime gauges and to tel as debug output.
func RecordRuntimeStats(ctx context.Context, interval time.Duration, tel API) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample := SampleRuntime(ctx)
				if sample.CPUPercent >= 0 {
					cpuGauge.Record(ctx, sample.CPUPercent)
				}
				memoryGauge.Record(ctx, sample.AllocatedMB)
				goroutineGauge.Record(ctx, sample.Goroutines)
				tel.ReportDebug("runtime", "allocated_mb", sample.AllocatedMB, "goroutines", sample.Goroutines, "cpu_percent", sample.CPUPercent)
			case <-ctx.Done():
				return
			}
		}
	}()
}

package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

const report_perf_stats = "perf-stats"

// InstrumentPerfStats samples process stats every interval until ctx is
// done. Long bot runs (full transclusion sweeps) are the reason this exists.
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	meter := otel.Meter("wikibot.perf_stats")
	cpuGauge, err := meter.Float64Gauge("cpu_usage")
	if err != nil {
		tel.ReportBroken(report_perf_stats, err)
		return
	}
	memoryGauge, err := meter.Int64Gauge("allocated_mb")
	if err != nil {
		tel.ReportBroken(report_perf_stats, err)
		return
	}
	goroutineGauge, err := meter.Int64Gauge("goroutine_count")
	if err != nil {
		tel.ReportBroken(report_perf_stats, err)
		return
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, time.Second, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					tel.ReportWarning(report_perf_stats, "read cpu usage", err)
				}

				allocatedMb := int64(memStats.Alloc / 1_000_000)
				memoryGauge.Record(ctx, allocatedMb)
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
				tel.ReportDebug(report_perf_stats, "allocated_mb", allocatedMb)
			case <-ctx.Done():
				return
			}
		}
	}()
}

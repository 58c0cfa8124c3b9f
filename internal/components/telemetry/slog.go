package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InitSlog installs a text handler on stderr as the default slog logger.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SlogAPI implements API using the log/slog package, counts are also recorded
// as an OpenTelemetry gauge on the global meter provider.
type SlogAPI struct {
	gaugeOnce *sync.Once
	gauge     *metric.Int64Gauge
}

func NewSlogAPI() SlogAPI {
	return SlogAPI{
		gaugeOnce: &sync.Once{},
		gauge:     new(metric.Int64Gauge),
	}
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)

	if s.gaugeOnce == nil {
		return
	}
	s.gaugeOnce.Do(func() {
		gauge, err := otel.Meter("wikibot").Int64Gauge("wikibot.count")
		if err != nil {
			slog.Warn("failed to create count gauge", "err", err)
			return
		}
		*s.gauge = gauge
	})
	if *s.gauge == nil {
		return
	}
	(*s.gauge).Record(
		context.Background(),
		count,
		metric.WithAttributes(attribute.String("id", id)),
	)
}

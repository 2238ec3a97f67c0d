package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Settings tune the engine; zero fields keep their defaults.
type Settings struct {
	EnrichWorkers int
	SlowMs        int64
}

var settings = Settings{EnrichWorkers: 8, SlowMs: 500}

var tracer = otel.Tracer("chifles_reporting/reports")

// Configure is called once at startup before serving.
func Configure(s Settings) {
	if s.EnrichWorkers > 0 {
		settings.EnrichWorkers = s.EnrichWorkers
	}
	if s.SlowMs > 0 {
		settings.SlowMs = s.SlowMs
	}
}

func enrichWorkers() int {
	return settings.EnrichWorkers
}

func reportSlowMs() int64 {
	return settings.SlowMs
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"module":         "reports",
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

// startReport opens the span for one report operation. The returned func
// records err on the span, logs slow runs and ends the span.
func startReport(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error, extra map[string]any)) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "reports."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error, extra map[string]any) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		logSlowReport(ctx, name, started, extra)
		span.End()
	}
}

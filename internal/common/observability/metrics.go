package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"risk-assessment/internal/common/logger"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	stepDuration  otelmetric.Float64Histogram
	jobCounter    otelmetric.Int64Counter
}

// New exports OTel instruments through reg, or the default Prometheus
// registerer when reg is nil. Names are escaped to the classic
// underscore form so textfile collectors can parse them. On exporter failure the returned value records
// nothing.
func New(serviceName string, reg prometheus.Registerer, log logger.Logger) *Observability {
	opts := []otelprom.Option{
		otelprom.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	}
	if reg != nil {
		opts = append(opts, otelprom.WithRegisterer(reg))
	}

	exporter, err := otelprom.New(opts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{
			"error": err.Error(),
		})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stepDuration, _ := meter.Float64Histogram(
		"pipeline.step.duration",
		otelmetric.WithDescription("Duration of each pipeline step"),
		otelmetric.WithUnit("ms"),
	)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of workflow jobs processed"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		stepDuration:  stepDuration,
		jobCounter:    jobCounter,
	}
}

// RecordStep is safe to call on a nil receiver.
func (o *Observability) RecordStep(ctx context.Context, step string, duration time.Duration) {
	if o == nil || o.stepDuration == nil {
		return
	}
	o.stepDuration.Record(ctx, float64(duration.Microseconds())/1000, otelmetric.WithAttributes(
		attribute.String("step", step),
	))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}

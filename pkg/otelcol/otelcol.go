package otelcol

import (
	"context"

	"community-points/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("otel",
	fx.Provide(
		ProvideTracerProvider,
		ProvideMeterProvider,
	),
)

func defaultTraceProviderOption() []sdktrace.TracerProviderOption {
	return []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.Default()),
	}
}

// ProvideTrace builds an SDK tracer provider batching spans into exporter.
func ProvideTrace(exporter sdktrace.SpanExporter, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	if len(opts) == 0 {
		opts = defaultTraceProviderOption()
	}

	opts = append(opts, sdktrace.WithBatcher(exporter))

	return sdktrace.NewTracerProvider(opts...)
}

// ProvideTracerProvider installs an SDK tracer provider as the global one.
// Spans are exported over OTLP/HTTP when OTEL.ADDR is set; without it spans
// are still created so trace ids reach the logs, but nothing leaves the
// process.
func ProvideTracerProvider(lc fx.Lifecycle, cfg *config.Config) (trace.TracerProvider, error) {
	var tp *sdktrace.TracerProvider
	if cfg.Otel.Addr == "" {
		tp = sdktrace.NewTracerProvider(defaultTraceProviderOption()...)
	} else {
		exporter, err := otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpoint(cfg.Otel.Addr),
			otlptracehttp.WithInsecure(),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		)
		if err != nil {
			zap.L().Error("failed to create otlp exporter", zap.Error(err))
			return nil, err
		}
		tp = ProvideTrace(exporter)
		zap.L().Info("tracing enabled", zap.String("otel_addr", cfg.Otel.Addr))
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

func ProvideMeterProvider() metric.MeterProvider {
	return otel.GetMeterProvider()
}

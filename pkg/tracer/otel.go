package tracer

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/yusufsyaifudin/fcmv1"

// propagator writes W3C trace context and baggage, plus the Jaeger and OT
// headers for backends that have not moved to W3C yet.
var propagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
	jaeger.Jaeger{},
	ot.OT{},
)

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(tracerName).Start(ctx, spanName, opts...)
}

// Inject writes the span context of ctx into the outgoing request header.
func Inject(ctx context.Context, header http.Header) {
	propagator.Inject(ctx, propagation.HeaderCarrier(header))
}

// Propagator returns the propagator used by Inject.
func Propagator() propagation.TextMapPropagator {
	return propagator
}

// RecordError marks the span as failed. Nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// InitTraceProvider registers a global batching provider exporting to exp.
// Applications call it once, the library itself only starts spans.
func InitTraceProvider(exp sdktrace.SpanExporter, serviceName string) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		// Always be sure to batch in production.
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("library", tracerName),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp
}

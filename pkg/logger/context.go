package logger

import "context"

type tracerCtxKey struct{}

var logTracerKey = tracerCtxKey{}

// Tracer holds the correlation ids attached to every log line of a request.
type Tracer struct {
	RequestID string `json:"request_id,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
}

// Inject puts Tracer into the context.
// Use context Values only for request-scoped data that transits processes and APIs,
// not for passing optional parameters to functions.
func Inject(ctx context.Context, stuff Tracer) context.Context {
	return context.WithValue(ctx, logTracerKey, stuff)
}

// Extract get Tracer information from context
func Extract(ctx context.Context) (Tracer, bool) {
	if ctx == nil {
		return Tracer{}, false
	}

	stuff, ok := ctx.Value(logTracerKey).(Tracer)
	if !ok {
		return Tracer{}, false
	}

	return stuff, ok
}

// MustExtract will extract Tracer without false condition.
// When Tracer is not exist, it will return empty Tracer instead of error.
func MustExtract(ctx context.Context) Tracer {
	stuff, _ := Extract(ctx)
	return stuff
}

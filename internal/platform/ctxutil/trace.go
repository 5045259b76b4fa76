package ctxutil

import "context"

type traceDataKey struct{}

// TraceData carries request correlation ids from the HTTP edge into services
// and background narration goroutines.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns trace_id/request_id key-value pairs for logger.With.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []interface{}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	return kv
}

// Detach keeps ctx's trace data on a fresh background context, for work that
// outlives the request.
func Detach(ctx context.Context) context.Context {
	td := GetTraceData(ctx)
	if td == nil {
		return context.Background()
	}
	return WithTraceData(context.Background(), td)
}

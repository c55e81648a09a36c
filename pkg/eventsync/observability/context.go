package observability

import "context"

type occurrenceKey struct{}

// ContextWithOccurrence returns a context carrying an occurrence ID.
// Loggers and spans created downstream pick it up.
func ContextWithOccurrence(ctx context.Context, occurrenceID string) context.Context {
	return context.WithValue(ctx, occurrenceKey{}, occurrenceID)
}

// OccurrenceFromContext returns the occurrence ID carried by ctx, or "".
func OccurrenceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(occurrenceKey{}).(string)
	return id
}

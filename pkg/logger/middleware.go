package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CorrelationHeader is the HTTP header carrying the correlation identifier.
const CorrelationHeader = "X-Correlation-ID"

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying the correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation identifier stored in ctx,
// or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// Middleware propagates the caller's correlation identifier, minting one when
// the request carries none, and echoes it back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
	})
}

package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key read by the access log.
	RequestIDKey = "request_id"
	contextKey   = "request_context"
)

// RequestContext carries per-request state down from the handlers into the
// service layer. Nothing about a request lives in package-level state.
type RequestContext struct {
	RequestID string
	StartedAt time.Time
}

type ctxKey struct{}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return rc, ok
}

// LogFields returns the structured logging fields for ctx. It never returns
// nil so callers can add to it.
func LogFields(ctx context.Context) map[string]interface{} {
	fields := map[string]interface{}{}
	if rc, ok := FromContext(ctx); ok {
		fields[RequestIDKey] = rc.RequestID
		fields["elapsed"] = time.Since(rc.StartedAt).String()
	}
	return fields
}

// RequestContextMiddleware attaches a RequestContext to every request. An
// incoming X-Request-ID is reused, otherwise a new id is generated.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		rc := &RequestContext{RequestID: id, StartedAt: time.Now()}

		c.Set(RequestIDKey, id)
		c.Set(contextKey, rc)
		c.Request = c.Request.WithContext(WithRequestContext(c.Request.Context(), rc))
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// Get returns the RequestContext attached by RequestContextMiddleware.
func Get(c *gin.Context) *RequestContext {
	if v, ok := c.Get(contextKey); ok {
		if rc, ok := v.(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{RequestID: uuid.NewString(), StartedAt: time.Now()}
}

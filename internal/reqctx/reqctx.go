package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type key int

const requestKey key = 0

// RequestContext identifies one page fetch across log lines.
type RequestContext struct {
	RequestID string
	URL       string
	StartTime time.Time
}

// WithRequestContext attaches a fresh request ID for pageURL to ctx.
func WithRequestContext(ctx context.Context, pageURL string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: uuid.NewString()[:8],
		URL:       pageURL,
		StartTime: time.Now(),
	})
}

func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns l annotated with the request ID and URL from ctx.
func Logger(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	rc := GetRequestContext(ctx)
	c := l.With().Str("request_id", rc.RequestID)
	if rc.URL != "" {
		c = c.Str("url", rc.URL)
	}
	return c.Logger()
}

// RequestError wraps an error with request context
type RequestError struct {
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError from context
func NewRequestError(ctx context.Context, err error) error {
	return &RequestError{
		RequestID: GetRequestContext(ctx).RequestID,
		Err:       err,
	}
}

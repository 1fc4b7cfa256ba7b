package auth

import "context"

type requestContextKey struct{}

// ContextWith attaches the resolved request context. The value is
// stored by pointer but treated as immutable; handlers receive it and
// never mutate it.
func ContextWith(ctx context.Context, rc *RequestContext) context.Context {
	if rc == nil {
		return ctx
	}
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext extracts the request context attached by the
// authentication middleware.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	if !ok || rc == nil {
		return nil, false
	}
	return rc, true
}

package appctx

import "context"

// ContextKey is the shared type for request scoped values. It lives in its own
// package so utils, upstream and middlewares can share keys without cycles.
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// "request" when the caller's own bearer token is forwarded, "service"
	// when the gateway's login is used instead.
	ContextKeyCredentialKind = ContextKey("CredentialKind")

	// upstream.Port already bound to the request credential
	ContextKeyDataPort = ContextKey("DataPort")
)

// Get returns the value stored under key when it has type T.
func Get[T any](ctx context.Context, key ContextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	return Get[string](ctx, key)
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

const (
	CredentialKindRequest = "request"
	CredentialKindService = "service"
)

var (
	ContextKeyToken          = appctx.ContextKeyToken
	ContextKeyCorrelationId  = appctx.ContextKeyCorrelationId
	ContextKeyCredentialKind = appctx.ContextKeyCredentialKind
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetCredentialKindFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCredentialKind)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetCredentialKindInContext(ctx context.Context, kind string) context.Context {
	return appctx.Set(ctx, ContextKeyCredentialKind, kind)
}

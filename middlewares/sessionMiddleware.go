package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/appctx"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/gin-gonic/gin"
)

// PortBinder builds the upstream port for one request.
type PortBinder interface {
	WithToken(token string) upstream.Port
	WithTokenSource(src upstream.TokenSource) upstream.Port
}

// SessionMiddleware binds an upstream port to the request. A caller token
// (set by AuthMiddleware) wins; otherwise the service credential is used when
// configured. With neither, no port is bound and @auth rejects the query.
func SessionMiddleware(client PortBinder, service *upstream.ServiceTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if token, ok := utils.GetTokenFromContext(ctx); ok && token != "" {
			ctx = SetPortInContext(ctx, client.WithToken(token))
		} else if service != nil && service.Configured() {
			ctx = utils.SetCredentialKindInContext(ctx, utils.CredentialKindService)
			ctx = SetPortInContext(ctx, client.WithTokenSource(service))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func SetPortInContext(ctx context.Context, port upstream.Port) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyDataPort, port)
}

// PortFor returns the port bound by SessionMiddleware.
func PortFor(ctx context.Context) (upstream.Port, bool) {
	port, ok := appctx.Get[upstream.Port](ctx, appctx.ContextKeyDataPort)
	return port, ok && port != nil
}

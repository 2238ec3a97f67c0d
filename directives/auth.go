package directives

import (
	"context"

	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Auth rejects the field unless the session middleware bound a credential
// to the request: either the caller's own token or the service login.
func Auth(ctx context.Context, obj interface{}, next graphql.Resolver) (interface{}, error) {
	kind, ok := utils.GetCredentialKindFromContext(ctx)
	if !ok || kind == "" {
		return nil, accessDenied(ctx)
	}
	if kind == utils.CredentialKindRequest {
		if token, ok := utils.GetTokenFromContext(ctx); !ok || token == "" {
			return nil, accessDenied(ctx)
		}
	}
	return next(ctx)
}

func accessDenied(ctx context.Context) *gqlerror.Error {
	err := &gqlerror.Error{
		Message:    "Access Denied",
		Extensions: map[string]interface{}{"code": "UNAUTHENTICATED"},
	}
	if graphql.GetFieldContext(ctx) != nil {
		err.Path = graphql.GetPath(ctx)
	}
	return err
}

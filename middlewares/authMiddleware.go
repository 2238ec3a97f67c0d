package middlewares

import (
	"strings"

	"bitbucket.org/mmdatafocus/chifles_reporting/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware picks up the caller's credential from "Authorization: Bearer"
// or the "token" header. The token is forwarded upstream untouched.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("token"))
		}
		if token == "" {
			c.Next()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetCredentialKindInContext(ctx, utils.CredentialKindRequest)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	const bearer = "bearer "
	if len(header) <= len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/storestream/internal/errors"
)

// identityKey is the Gin context key the parsed identity is stored under.
const identityKey = "stream_identity"

// Middleware returns a Gin middleware that validates the bearer token
// and stores the resulting Identity in the request context.
//
// EventSource clients cannot set request headers, so the token is also
// accepted via the access_token query parameter.
func Middleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			appErr := apperrors.Unauthorized("Bearer token required.")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}

		identity, err := svc.Parse(token)
		if err != nil {
			appErr := apperrors.InvalidToken().WithCause(err)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom extracts the authenticated identity from the Gin context.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// bearerToken extracts the credential from the Authorization header or,
// failing that, the access_token query parameter.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("access_token")
}

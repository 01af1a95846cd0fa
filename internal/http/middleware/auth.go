// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Two flavors are provided:
//   - OptionalAuth: resolves the identity when a valid token is present and
//     proceeds anonymously otherwise (list/detail endpoints compute
//     viewer-relative flags from it).
//   - RequireAuth: rejects requests without a valid token with 401.
//
// Both stash the numeric user id in the Gin context under "userID" (uint),
// which downstream handlers and the idempotency middleware read.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxKeyUserID is the Gin context key carrying the authenticated user id.
const ctxKeyUserID = "userID"

// TokenVerifier validates an access token and returns the user id it was
// issued for. Implementations must treat every malformed, expired, or
// forged token as an error.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// bearerToken extracts the credentials from an "Authorization: Bearer <tok>"
// header. Returns "" when the header is absent or uses another scheme.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// OptionalAuth returns a middleware that authenticates the request when a
// valid bearer token is present and continues anonymously otherwise. An
// invalid token is treated as anonymous rather than rejected, so cached or
// expired clients can still browse public data.
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearerToken(c); tok != "" {
			if id, err := v.Verify(tok); err == nil && id != 0 {
				c.Set(ctxKeyUserID, id)
			}
		}
		c.Next()
	}
}

// RequireAuth returns a middleware that rejects requests lacking a valid
// bearer token with 401. On success the user id is stashed in the context.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "authentication required",
			})
			return
		}
		id, err := v.Verify(tok)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid or expired token",
			})
			return
		}
		c.Set(ctxKeyUserID, id)
		c.Next()
	}
}

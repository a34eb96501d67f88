package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionKey = "sid"

// TokenParser resolves a bearer token to a session id.
type TokenParser interface {
	Parse(raw string) (string, error)
}

type Authz struct {
	tokens TokenParser
}

func NewAuthz(tokens TokenParser) *Authz {
	return &Authz{tokens: tokens}
}

// Require checks the session JWT and exposes its sid to handlers.
func (a *Authz) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		sid, err := a.tokens.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the sid set by Require.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

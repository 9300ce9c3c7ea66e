// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. A verified token becomes
// a domain.Principal stored in the Gin context; handlers read it with
// PrincipalFrom and pass it explicitly to the services.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/auth"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

const ctxKeyPrincipal = "principal"

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// SetPrincipal stores p in the request context; loggers read it back through
// PrincipalFrom.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(ctxKeyPrincipal, p)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok && p.ID != 0
}

// Authenticate rejects requests without a valid "Authorization: Bearer"
// token with 401 and stores the principal otherwise.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		SetPrincipal(c, claims.Principal())
		c.Next()
	}
}

func bearerToken(h string) string {
	const prefix = "bearer "
	h = strings.TrimSpace(h)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}

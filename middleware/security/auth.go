package security

import (
	"net/http"
	"strings"

	"Linkup/tools/security"

	"github.com/gin-gonic/gin"
)

// CtxPrincipalKey is where the authenticated principal lands in the gin
// context.
const CtxPrincipalKey = "principal"

// Auth extracts and validates the bearer token; mutations without a
// principal are rejected here, so handlers can assume one.
func Auth(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		p, err := security.Parse(token, opts)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(CtxPrincipalKey, p)
		c.Next()
	}
}

// Principal reads the authenticated principal set by Auth.
func Principal(c *gin.Context) (security.Principal, bool) {
	v, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return security.Principal{}, false
	}
	p, ok := v.(security.Principal)
	return p, ok
}

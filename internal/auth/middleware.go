package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxClaims = "jumptoc_claims"

// RequireAuth parses the bearer token and checks its version against
// the account's current one, so revoked tokens are dead before they
// expire.
func RequireAuth(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		version, err := repo.TokenVersion(c.Request.Context(), claims.UserID)
		if err != nil || version != claims.TokenVersion {
			abortUnauthorized(c, "token revoked")
			return
		}

		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// ClaimsFrom returns the claims RequireAuth verified for this request.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// SessionVerifier validates bearer session tokens.
type SessionVerifier interface {
	VerifySession(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid session token.
func JWT(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := verifier.VerifySession(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RequirePasswordRotated blocks sessions flagged for a forced password change
// on every route except the exempt full paths.
func RequirePasswordRotated(exempt ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(exempt))
	for _, path := range exempt {
		allowed[path] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok || !claims.PasswordChange {
			c.Next()
			return
		}
		if _, ok := allowed[c.FullPath()]; ok {
			c.Next()
			return
		}
		response.Abort(c, appErrors.ErrPasswordChangeRequired)
	}
}

// Claims returns the session claims stored by JWT.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}

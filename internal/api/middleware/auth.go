package middleware

import (
	"net/http"
	"strings"

	"event-registration/internal/auth"
	domain "event-registration/internal/domain/registration"

	"github.com/gin-gonic/gin"
)

const principalContextKey = "principal"

// Auth extracts and verifies the bearer credential, storing the resulting
// principal in the request context. A missing or malformed header is a
// different failure from a bad token; both end the request with 401.
func Auth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abortUnauthorized(c, "Authorization header must be: Bearer <token>")
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			abortUnauthorized(c, "Token is expired or invalid")
			return
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// RequireRole rejects requests whose principal lacks the required role.
// Admin always passes. Must run after Auth.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFromContext(c)
		if principal == nil {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}
		if !principal.HasRole(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Required role: " + required,
			})
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns the verified principal set by Auth, or nil.
func PrincipalFromContext(c *gin.Context) *domain.Principal {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*domain.Principal)
	if !ok {
		return nil
	}
	return principal
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shop-app/auth-service/internal/domain"
	services "shop-app/auth-service/internal/service"
)

const principalKey = "auth_principal"

// Authenticate verifies the caller's access token and re-resolves the
// user before any business logic runs. The decision itself is made by
// AuthService.Authenticate; this middleware only moves the token in and
// the principal out.
func Authenticate(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
			return
		}

		principal, err := authService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRoles rejects authenticated callers whose role is not in the
// allowed set. With no roles given it admits any authenticated caller.
// It must run after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowed) > 0 {
			if _, ok := allowed[principal.Role]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller set by Authenticate.
func PrincipalFrom(c *gin.Context) (*services.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*services.Principal)
	return principal, ok
}

// extractAccessToken reads the bearer header first, then the access
// cookie set at login.
func extractAccessToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	cookie, err := c.Cookie(accessCookieName)
	if err != nil {
		return ""
	}
	return cookie
}

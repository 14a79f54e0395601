package middleware

import (
	"net/http"

	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller has one of roles.
// Anonymous callers get 401, authenticated callers with another role 403.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	allowed := make(map[domain.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Unauthorized(c)
			return
		}

		if _, ok := allowed[identity.Role]; !ok {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly requires the ADMIN role.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

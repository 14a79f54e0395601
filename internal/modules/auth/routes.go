package auth

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the cookie based endpoints. csrf guards the
// two endpoints that act on the refresh cookie.
func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup, csrf gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.GET("/csrf", h.CSRF)
		authGroup.POST("/refresh", csrf, h.Refresh)
		authGroup.POST("/logout", csrf, h.Logout)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/me", h.Me)
}

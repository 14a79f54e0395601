package server

import (
	"net/http"

	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/middleware"
	"fdsdashboard/internal/modules/auth"
	"fdsdashboard/internal/modules/users"

	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP router needs.
type Deps struct {
	Tokens         middleware.TokenValidator
	Auth           *auth.Handler
	Users          *users.Handler
	AllowedOrigins []string
}

// NewRouter builds the gin engine with the middleware chain and all routes
// mounted under /api.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(d.AllowedOrigins))
	r.Use(middleware.JWTAuth(d.Tokens))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		d.Auth.RegisterPublicRoutes(api, middleware.CSRFProtect())
		d.Users.RegisterPublicRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			d.Auth.RegisterProtectedRoutes(protected)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			d.Users.RegisterAdminRoutes(admin)
		}
	}

	return r
}

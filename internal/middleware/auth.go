package middleware

import (
	"strings"

	"fdsdashboard/internal/pkg/jwt"
	"fdsdashboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextIdentity = "identity"
	ContextUserID   = "user_id"
	ContextLoginID  = "login_id"
	ContextRole     = "role"
)

// TokenValidator parses an access token into the identity it carries.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Identity, error)
}

// JWTAuth reads "Authorization: Bearer <token>" and, when the token is valid,
// stores the identity in the context. It never aborts: a missing or bad
// token leaves the request anonymous and RequireAuth decides what to do.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			clearIdentity(c)
			c.Next()
			return
		}

		identity, err := validator.ValidateToken(token)
		if err != nil {
			clearIdentity(c)
			c.Next()
			return
		}

		c.Set(ContextIdentity, identity)
		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextLoginID, identity.LoginID)
		c.Set(ContextRole, string(identity.Role))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by JWTAuth, if any.
func CurrentIdentity(c *gin.Context) (*jwt.Identity, bool) {
	v, exists := c.Get(ContextIdentity)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*jwt.Identity)
	return identity, ok && identity != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func clearIdentity(c *gin.Context) {
	for _, key := range []string{ContextIdentity, ContextUserID, ContextLoginID, ContextRole} {
		delete(c.Keys, key)
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"fdsdashboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeaderName = "X-XSRF-TOKEN"
)

// IssueCSRFToken sets a fresh XSRF-TOKEN cookie readable by scripts.
func IssueCSRFToken(c *gin.Context, secure bool) string {
	token := uuid.NewString()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CSRFCookieName, token, 0, "/", "", secure, false)
	return token
}

// CSRFProtect enforces the double-submit check: the X-XSRF-TOKEN header must
// equal the XSRF-TOKEN cookie.
func CSRFProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			response.Abort(c, http.StatusForbidden, "CSRF_INVALID", "Invalid CSRF token")
			return
		}
		c.Next()
	}
}

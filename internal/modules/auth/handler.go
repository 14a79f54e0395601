package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"fdsdashboard/internal/middleware"
	"fdsdashboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const RefreshCookieName = "fds_refresh_token"

// CookieConfig controls the refresh cookie attributes.
type CookieConfig struct {
	Path   string
	Secure bool
	MaxAge time.Duration
}

// Handler manages the HTTP side of login, refresh and logout.
type Handler struct {
	service *Service
	cookies CookieConfig
}

func NewHandler(service *Service, cookies CookieConfig) *Handler {
	if cookies.Path == "" {
		cookies.Path = "/api/auth"
	}
	return &Handler{service: service, cookies: cookies}
}

// Login checks credentials and sets the refresh cookie.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, c.GetHeader("User-Agent"), clientIP(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, result.Response)
}

// Refresh rotates the refresh cookie and returns a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(RefreshCookieName)

	result, err := h.service.Refresh(c.Request.Context(), raw, c.GetHeader("User-Agent"), clientIP(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, result.Response)
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(RefreshCookieName)

	err := h.service.Logout(c.Request.Context(), raw)
	h.clearRefreshCookie(c)
	if err != nil {
		log.Printf("logout_failed client_ip=%s error=%v", clientIP(c), err)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
		return
	}

	c.Status(http.StatusOK)
}

// CSRF hands out the XSRF-TOKEN cookie used by refresh and logout.
func (h *Handler) CSRF(c *gin.Context) {
	middleware.IssueCSRFToken(c, h.isSecure(c))
	c.Status(http.StatusNoContent)
}

// Me returns the identity carried by the access token.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	response.Success(c, http.StatusOK, MeResponse{
		UserID:  identity.UserID,
		LoginID: identity.LoginID,
		Role:    string(identity.Role),
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "userId and password are required")
	case errors.Is(err, ErrUnauthorized):
		response.Unauthorized(c)
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (h *Handler) setRefreshCookie(c *gin.Context, raw string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, raw, int(h.cookies.MaxAge/time.Second), h.cookies.Path, "", h.isSecure(c), true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	// Negative max age is written as Max-Age=0.
	c.SetCookie(RefreshCookieName, "", -1, h.cookies.Path, "", h.isSecure(c), true)
}

func (h *Handler) isSecure(c *gin.Context) bool {
	if h.cookies.Secure {
		return true
	}
	if proto := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		return strings.EqualFold(proto, "https")
	}
	return c.Request.TLS != nil
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); strings.TrimSpace(forwarded) != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return c.ClientIP()
}

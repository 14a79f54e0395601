// Package response writes the dashboard's JSON envelope:
// {"success": true, "data": ...} or {"success": false, "error": {...}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// Every authentication failure shares this body so clients cannot tell
// missing, malformed, expired and revoked credentials apart.
const unauthorizedMessage = "Authentication failed"

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes the failure envelope. message is shown to clients, so it
// must not carry internal failure reasons.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, failure(code, message, nil))
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, failure(code, message, details))
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	c.AbortWithStatusJSON(statusCode, failure(code, message, nil))
}

func Unauthorized(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, CodeUnauthorized, unauthorizedMessage)
}

func Internal(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

func failure(code, message string, details any) gin.H {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	return gin.H{
		"success": false,
		"error":   body,
	}
}

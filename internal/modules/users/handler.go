package users

import (
	"errors"
	"net/http"
	"strconv"

	"fdsdashboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	userGroup := api.Group("/users")
	{
		userGroup.POST("/signup", h.Signup)
	}
}

// RegisterAdminRoutes expects a group already guarded by an ADMIN role check.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.PUT("/users/:id/role", h.ChangeRole)
}

// Signup registers a new USER account.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid signup request", vErr.Fields)
		case errors.Is(err, ErrLoginIDTaken):
			response.Error(c, http.StatusConflict, "USER_ID_EXISTS", "User ID already exists")
		case errors.Is(err, ErrEmailTaken):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "User email already exists")
		case errors.Is(err, ErrUserExists):
			response.Error(c, http.StatusConflict, "USER_EXISTS", "User already exists")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "SIGNUP_FAILED", "Failed to sign up")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ChangeRole sets a user's role to ADMIN or USER.
func (h *Handler) ChangeRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	role, err := h.service.ChangeRole(c.Request.Context(), id, req.Role)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "role must be ADMIN or USER")
		case errors.Is(err, ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to change role")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"userId": id, "role": role})
}

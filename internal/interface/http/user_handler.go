package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-management-api/internal/application"
	repo "github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/internal/interface/middleware"
	"github.com/oksasatya/user-management-api/pkg/response"
	"github.com/oksasatya/user-management-api/pkg/validation"
)

// UserHandler serves the token-gated account endpoints.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateUserRequest struct {
	FullName   *string `json:"full_name" binding:"omitempty,min=3,max=100"`
	Department *string `json:"department"`
	JobTitle   *string `json:"job_title"`
	Active     *bool   `json:"active"`
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return 0, false
	}
	return id, true
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	subject := c.GetString(middleware.CtxSubjectKey)
	view, err := h.Svc.GetCurrentUser(c.Request.Context(), subject)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("get current user failed")
		response.Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	response.Success(c, http.StatusOK, view, "profile", nil)
}

// List handles GET /users/ with optional department and active query filters.
func (h *UserHandler) List(c *gin.Context) {
	var department *string
	if d := c.Query("department"); d != "" {
		department = &d
	}
	var active *bool
	if a := c.Query("active"); a != "" {
		b, err := strconv.ParseBool(a)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid active filter", nil)
			return
		}
		active = &b
	}

	views, err := h.Svc.ListUsers(c.Request.Context(), department, active)
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		response.Error(c, http.StatusInternalServerError, "listing failed", nil)
		return
	}
	response.Success(c, http.StatusOK, views, "users", map[string]any{"count": len(views)})
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("get user failed")
		response.Error(c, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	response.Success(c, http.StatusOK, view, "user", nil)
}

// Update handles PUT /users/:id with patch semantics: absent fields are
// left untouched.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	view, err := h.Svc.UpdateUser(c.Request.Context(), id, repo.UserPatch{
		FullName:   req.FullName,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Active:     req.Active,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update user failed")
		response.Error(c, http.StatusInternalServerError, "update failed", nil)
		return
	}
	response.Success(c, http.StatusOK, view, "user updated", nil)
}

// Delete handles DELETE /users/:id (soft delete).
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.DeactivateUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("deactivate user failed")
		response.Error(c, http.StatusInternalServerError, "deactivation failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true}, "user deactivated", nil)
}

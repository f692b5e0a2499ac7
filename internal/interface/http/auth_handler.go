package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/pkg/response"
	"github.com/oksasatya/user-management-api/pkg/validation"
)

// AuthHandler serves the public endpoints: registration and login.
type AuthHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *userapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	FullName   string  `json:"full_name" binding:"required,min=3,max=100"`
	Password   string  `json:"password" binding:"required,userpwd"`
	Department *string `json:"department"`
	JobTitle   *string `json:"job_title"`
	Active     *bool   `json:"active"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/registro
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	view, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Department: req.Department,
		JobTitle:   req.JobTitle,
		Active:     req.Active,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrDuplicateEmail):
			response.Error(c, http.StatusBadRequest, "email already registered", nil)
		case errors.Is(err, userapp.ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, "password must be at least 8 characters with an uppercase letter, a lowercase letter and a digit", nil)
		default:
			h.Logger.WithError(err).Error("register failed")
			response.Error(c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}
	response.Success(c, http.StatusCreated, view, "user registered", nil)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "invalid email or password", nil)
		case errors.Is(err, userapp.ErrInactiveAccount):
			response.Error(c, http.StatusForbidden, "account is inactive", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error(c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, res, "login successful", nil)
}

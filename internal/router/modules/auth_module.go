package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
)

// AuthModule wires the public authentication routes.
// POST /auth/registro, POST /auth/login
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/registro", m.Handler.Register)
		auth.POST("/login", m.Handler.Login)
	}
}

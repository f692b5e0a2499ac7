package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
	"github.com/oksasatya/user-management-api/internal/interface/middleware"
	"github.com/oksasatya/user-management-api/pkg/helpers"
)

// UserModule wires the token-gated account routes.
// GET /users/me, GET /users/, GET|PUT|DELETE /users/:id
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.JWT, m.Logger))
	{
		users.GET("/me", m.Handler.Me)
		users.GET("/", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}

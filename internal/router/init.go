package router

import (
	userapp "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/internal/container"
	pginfra "github.com/oksasatya/user-management-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
	"github.com/oksasatya/user-management-api/internal/router/modules"
)

// InitModules builds the account service from container singletons and
// registers the feature modules. Called once during application startup.
func InitModules(r *Registry) {
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetConfig().BcryptCost,
	)

	authHandler := handlers.NewAuthHandler(service, container.GetLogger())
	userHandler := handlers.NewUserHandler(service, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT(), container.GetLogger()))
}

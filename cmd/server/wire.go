//go:build wireinject

package main

import (
	"github.com/google/wire"

	"jan-chat/internal/domain"
	"jan-chat/internal/infrastructure"
	"jan-chat/internal/interfaces"
	"jan-chat/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, func(), error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

package interfaces

import (
	"github.com/google/wire"

	"jan-chat/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
)

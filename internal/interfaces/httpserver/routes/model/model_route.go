package model

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-chat/internal/interfaces/httpserver/handlers/modelhandler"
)

type ModelRoute struct {
	handler *modelhandler.ModelHandler
}

func NewModelRoute(handler *modelhandler.ModelHandler) *ModelRoute {
	return &ModelRoute{handler: handler}
}

func (route *ModelRoute) RegisterRouter(router gin.IRouter) {
	router.GET("/models", route.listModels)
}

// listModels godoc
// @Summary List selectable models
// @Tags Models API
// @Produce json
// @Success 200 {object} modelresponses.ModelListResponse
// @Router /models [get]
func (route *ModelRoute) listModels(reqCtx *gin.Context) {
	reqCtx.JSON(http.StatusOK, route.handler.ListModels())
}

package modelhandler

import (
	"jan-chat/internal/config"
	"jan-chat/internal/domain/inference"
	"jan-chat/internal/domain/model"
	modelresponses "jan-chat/internal/interfaces/httpserver/responses/model"
)

type ModelHandler struct {
	catalog  *model.Catalog
	registry *inference.Registry
	app      modelresponses.AppInfo
}

func NewModelHandler(catalog *model.Catalog, registry *inference.Registry, cfg *config.Config) *ModelHandler {
	return &ModelHandler{
		catalog:  catalog,
		registry: registry,
		app:      modelresponses.AppInfo{Name: cfg.AppName, Description: cfg.AppDescription},
	}
}

// ListModels returns the catalog together with the application identity and the model used when a request names none.
func (h *ModelHandler) ListModels() modelresponses.ModelListResponse {
	resp := modelresponses.NewModelListResponse(h.catalog.List())
	resp.App = h.app
	resp.DefaultModel = h.registry.DefaultModel()
	return resp
}

package domain

import (
	"github.com/google/wire"

	"jan-chat/internal/config"
	"jan-chat/internal/domain/chat"
	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/model"
)

// ProvideChatConfig maps the request defaults from the service configuration.
func ProvideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
	}
}

// ProvideModelCatalog serves MODEL_CATALOG_PATH when set and the built-in list otherwise.
func ProvideModelCatalog(cfg *config.Config) (*model.Catalog, error) {
	if cfg.ModelCatalogPath == "" {
		return model.NewCatalog(cfg.MaxTokens, cfg.Temperature), nil
	}
	entries, err := config.LoadModelCatalog(cfg.ModelCatalogPath)
	if err != nil {
		return nil, err
	}
	models := make([]model.Model, 0, len(entries))
	for _, entry := range entries {
		m := model.Model{ID: entry.ID, Name: entry.Name, Description: entry.Description}
		if entry.MaxTokens != nil {
			m.MaxTokens = *entry.MaxTokens
		}
		if entry.Temperature != nil {
			m.Temperature = *entry.Temperature
		}
		models = append(models, m)
	}
	return model.NewCatalogFromModels(models, cfg.MaxTokens, cfg.Temperature), nil
}

var ServiceProvider = wire.NewSet(
	conversation.NewConversationService,
	ProvideChatConfig,
	chat.NewChatService,
	wire.Bind(new(chat.MessageStore), new(*conversation.ConversationService)),
	ProvideModelCatalog,
)

package modelresponses

import "jan-chat/internal/domain/model"

type ModelResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type AppInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ModelListResponse struct {
	App          AppInfo         `json:"app"`
	DefaultModel string          `json:"defaultModel,omitempty"`
	Models       []ModelResponse `json:"models"`
}

func NewModelListResponse(models []model.Model) ModelListResponse {
	result := make([]ModelResponse, 0, len(models))
	for _, m := range models {
		result = append(result, ModelResponse{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			MaxTokens:   m.MaxTokens,
			Temperature: m.Temperature,
		})
	}
	return ModelListResponse{Models: result}
}

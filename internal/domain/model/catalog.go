package model

// Model describes one selectable model as shown to clients.
type Model struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Catalog is the static list served by GET /models.
type Catalog struct {
	models []Model
}

func NewCatalog(maxTokens int, temperature float64) *Catalog {
	return &Catalog{
		models: []Model{
			{
				ID:          "deepseek-chat",
				Name:        "DeepSeek Chat",
				Description: "DeepSeek V3 model for text generation and conversational AI",
				MaxTokens:   maxTokens,
				Temperature: temperature,
			},
			{
				ID:          "deepseek-reasoner",
				Name:        "DeepSeek Reasoner",
				Description: "DeepSeek R1 model for advanced reasoning and text generation",
				MaxTokens:   maxTokens,
				Temperature: temperature,
			},
		},
	}
}

// NewCatalogFromModels serves the given models. Entries without their own
// limits inherit maxTokens and temperature.
func NewCatalogFromModels(models []Model, maxTokens int, temperature float64) *Catalog {
	list := make([]Model, len(models))
	for i, m := range models {
		if m.MaxTokens <= 0 {
			m.MaxTokens = maxTokens
		}
		if m.Temperature == 0 {
			m.Temperature = temperature
		}
		list[i] = m
	}
	return &Catalog{models: list}
}

// List returns a copy of the catalog.
func (c *Catalog) List() []Model {
	return append([]Model(nil), c.models...)
}

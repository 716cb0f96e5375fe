package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/domain/model"
)

func TestCatalogList(t *testing.T) {
	catalog := model.NewCatalog(2048, 0.7)

	models := catalog.List()
	require.Len(t, models, 2)
	assert.Equal(t, "deepseek-chat", models[0].ID)
	assert.Equal(t, "DeepSeek Reasoner", models[1].Name)
	assert.Equal(t, 2048, models[1].MaxTokens)
	assert.InDelta(t, 0.7, models[0].Temperature, 1e-9)

	models[0].ID = "changed"
	assert.Equal(t, "deepseek-chat", catalog.List()[0].ID)
}

func TestCatalogFromModelsInheritsDefaults(t *testing.T) {
	catalog := model.NewCatalogFromModels([]model.Model{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B", MaxTokens: 512, Temperature: 0.1},
	}, 2048, 0.7)

	models := catalog.List()
	require.Len(t, models, 2)
	assert.Equal(t, 2048, models[0].MaxTokens)
	assert.InDelta(t, 0.7, models[0].Temperature, 1e-9)
	assert.Equal(t, 512, models[1].MaxTokens)
	assert.InDelta(t, 0.1, models[1].Temperature, 1e-9)
}

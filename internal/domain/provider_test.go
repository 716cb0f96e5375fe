package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/config"
)

func TestProvideModelCatalog(t *testing.T) {
	cfg := &config.Config{MaxTokens: 1024, Temperature: 0.5}

	builtin, err := ProvideModelCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", builtin.List()[0].ID)

	cfg.ModelCatalogPath = filepath.Join(t.TempDir(), "models.yml")
	require.NoError(t, os.WriteFile(cfg.ModelCatalogPath, []byte("models:\n  - id: llama\n    description: local\n"), 0o600))

	fromFile, err := ProvideModelCatalog(cfg)
	require.NoError(t, err)
	models := fromFile.List()
	require.Len(t, models, 1)
	assert.Equal(t, "llama", models[0].ID)
	assert.Equal(t, 1024, models[0].MaxTokens)
	assert.InDelta(t, 0.5, models[0].Temperature, 1e-9)

	cfg.ModelCatalogPath = filepath.Join(t.TempDir(), "missing.yml")
	_, err = ProvideModelCatalog(cfg)
	assert.Error(t, err)
}

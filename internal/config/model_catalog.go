package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"jan-chat/internal/infrastructure/logger"
)

// ModelCatalogEntry is one model listed in the catalog file.
type ModelCatalogEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	MaxTokens   *int     `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

type modelCatalogDocument struct {
	Models []ModelCatalogEntry `yaml:"models"`
}

// LoadModelCatalog parses the yaml model list at path.
func LoadModelCatalog(path string) ([]ModelCatalogEntry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model catalog path is empty")
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read model catalog %q: %w", cleanPath, err)
	}
	log := logger.GetLogger()
	log.Info().Str("path", cleanPath).Msg("loading model catalog file")

	var doc modelCatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model catalog %q: %w", cleanPath, err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("model catalog %q lists no models", cleanPath)
	}

	seen := make(map[string]struct{}, len(doc.Models))
	for i, entry := range doc.Models {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("model catalog %q: entry %d has no id", cleanPath, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("model catalog %q: duplicate id %q", cleanPath, id)
		}
		seen[id] = struct{}{}
		doc.Models[i].ID = id
		if strings.TrimSpace(entry.Name) == "" {
			doc.Models[i].Name = id
		}
	}
	return doc.Models, nil
}

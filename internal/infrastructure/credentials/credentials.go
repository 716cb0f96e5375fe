package credentials

import (
	"context"
	"os"
	"strings"

	"jan-chat/internal/utils/platformerrors"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Source returns provider API keys. Keys are looked up on every call so rotated
// credentials apply without a restart.
type Source interface {
	APIKey(ctx context.Context, provider string) (string, error)
}

// envVars lists the variables consulted per provider, in priority order.
var envVars = map[string][]string{
	ProviderOpenAI:     {"OPENAI_API_KEY"},
	ProviderOpenRouter: {"OPENROUTER_API_KEY", "DEEPSEEK_API_KEY"},
	ProviderGemini:     {"GEMINI_API_KEY"},
}

// EnvSource reads keys from the process environment.
type EnvSource struct {
	lookup func(string) (string, bool)
}

var _ Source = (*EnvSource)(nil)

func NewEnvSource() *EnvSource {
	return &EnvSource{lookup: os.LookupEnv}
}

// NewEnvSourceWithLookup is NewEnvSource over a custom lookup function.
func NewEnvSourceWithLookup(lookup func(string) (string, bool)) *EnvSource {
	return &EnvSource{lookup: lookup}
}

func (s *EnvSource) APIKey(ctx context.Context, provider string) (string, error) {
	names, ok := envVars[provider]
	if !ok {
		return "", missingKey(ctx, provider, "unknown provider")
	}
	for _, name := range names {
		if value, ok := s.lookup(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", missingKey(ctx, provider, strings.Join(names, " or ")+" is not set")
}

func missingKey(ctx context.Context, provider string, detail string) *platformerrors.PlatformError {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeConfiguration,
		provider+" API key not configured: "+detail, nil, "f7d1b4c9-6e8d-4a0f-8c25-b0a9d8e3f147",
		map[string]any{"provider": provider})
}

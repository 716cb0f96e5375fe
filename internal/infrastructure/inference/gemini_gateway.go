package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"jan-chat/internal/domain/conversation"
	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/credentials"
	"jan-chat/internal/utils/httpclients"
	"jan-chat/internal/utils/platformerrors"
)

type geminiModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// geminiClientFactory builds a models client for one API key.
type geminiClientFactory func(ctx context.Context, apiKey string) (geminiModelsClient, error)

func newGenaiModelsClient(ctx context.Context, apiKey string) (geminiModelsClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// GeminiGateway serves the configured Gemini model. It does not stream.
type GeminiGateway struct {
	creds     credentials.Source
	model     string
	newClient geminiClientFactory
}

var _ domaininference.Gateway = (*GeminiGateway)(nil)

func NewGeminiGateway(creds credentials.Source, model string) *GeminiGateway {
	return &GeminiGateway{creds: creds, model: model, newClient: newGenaiModelsClient}
}

func (g *GeminiGateway) Name() string {
	return credentials.ProviderGemini
}

func (g *GeminiGateway) Supports(model string) bool {
	return strings.TrimSpace(model) == g.model
}

func (g *GeminiGateway) Generate(ctx context.Context, req domaininference.Request) (*domaininference.Reply, error) {
	ctx, call := startProviderCall(ctx, g.Name(), g.model, false)

	apiKey, err := g.creds.APIKey(ctx, credentials.ProviderGemini)
	if err != nil {
		call.end(err, nil)
		return nil, err
	}

	client, err := g.newClient(ctx, apiKey)
	if err != nil {
		err = platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeConfiguration, "failed to create gemini client", err, "d6b2aef7-93b5-41e6-8c84-fa02b4c6d8e9")
		call.end(err, nil)
		return nil, err
	}

	resp, err := client.GenerateContent(ctx, g.model, geminiContents(req), g.generateConfig(req))
	if err != nil {
		err = geminiError(ctx, err)
		call.end(err, nil)
		return nil, err
	}

	usage := geminiUsage(resp)
	call.end(nil, usage)

	return &domaininference.Reply{
		Content:  geminiText(resp),
		Model:    g.model,
		Provider: g.Name(),
		Usage:    usage,
	}, nil
}

func (g *GeminiGateway) generateConfig(req domaininference.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	return config
}

// geminiContents maps assistant turns to the model role and everything else to user.
func geminiContents(req domaininference.Request) []*genai.Content {
	history := domaininference.Turns(req.History)
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == conversation.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}
	return append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Message}},
	})
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func geminiUsage(resp *genai.GenerateContentResponse) *domaininference.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &domaininference.Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}

func geminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "Gemini API error"
		}
		status := apiErr.Code
		if status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key") {
			status = http.StatusUnauthorized
		}
		return httpclients.StatusError(ctx, credentials.ProviderGemini, status, message, "e7c3bf08-a4c6-42f7-9d95-0b13c5d7e9fa")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "gemini request failed", err, "f8d4c019-b5d7-4308-8ea6-1c24d6e8f0ab")
}

package inference

import (
	"context"
	"strings"

	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/credentials"
	chatclient "jan-chat/internal/utils/httpclients/chat"
)

// replyProvider is the provider name reported to clients for OpenRouter replies.
const replyProvider = "deepseek"

// OpenRouterGateway serves exactly one model through OpenRouter.
type OpenRouterGateway struct {
	client *chatclient.ChatCompletionClient
	creds  credentials.Source
	model  string
}

var _ domaininference.Gateway = (*OpenRouterGateway)(nil)

// NewOpenRouterGateway attributes requests to the site through the HTTP-Referer and X-Title headers.
func NewOpenRouterGateway(client *chatclient.ChatCompletionClient, creds credentials.Source, model, siteURL, siteName string) *OpenRouterGateway {
	client.WithHeader("HTTP-Referer", siteURL).WithHeader("X-Title", siteName)
	return &OpenRouterGateway{client: client, creds: creds, model: model}
}

func (g *OpenRouterGateway) Name() string {
	return credentials.ProviderOpenRouter
}

func (g *OpenRouterGateway) Supports(model string) bool {
	return strings.TrimSpace(model) == g.model
}

func (g *OpenRouterGateway) Generate(ctx context.Context, req domaininference.Request) (*domaininference.Reply, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.model
	}
	if model != g.model {
		return nil, domaininference.ErrUnsupportedModel(ctx, g.Name(), model)
	}

	ctx, call := startProviderCall(ctx, g.Name(), g.model, false)

	apiKey, err := g.creds.APIKey(ctx, credentials.ProviderOpenRouter)
	if err != nil {
		call.end(err, nil)
		return nil, err
	}

	resp, err := g.client.CreateChatCompletion(ctx, apiKey, completionRequest(g.model, req))
	if err != nil {
		call.end(err, nil)
		return nil, err
	}

	usage := usageFromOpenAI(&resp.Usage)
	call.end(nil, usage)

	content := firstChoiceContent(resp)
	if content == "" {
		content = noResponseContent
	}
	return &domaininference.Reply{
		Content:  content,
		Model:    g.model,
		Provider: replyProvider,
		Usage:    usage,
	}, nil
}

package inference

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/credentials"
	chatclient "jan-chat/internal/utils/httpclients/chat"
)

// OpenAIGateway serves the configured OpenAI model, synchronously or streamed.
type OpenAIGateway struct {
	client *chatclient.ChatCompletionClient
	creds  credentials.Source
	model  string
}

var _ domaininference.StreamingGateway = (*OpenAIGateway)(nil)

func NewOpenAIGateway(client *chatclient.ChatCompletionClient, creds credentials.Source, model string) *OpenAIGateway {
	return &OpenAIGateway{client: client, creds: creds, model: model}
}

func (g *OpenAIGateway) Name() string {
	return credentials.ProviderOpenAI
}

func (g *OpenAIGateway) Supports(model string) bool {
	return strings.TrimSpace(model) == g.model
}

func (g *OpenAIGateway) Generate(ctx context.Context, req domaininference.Request) (*domaininference.Reply, error) {
	ctx, call := startProviderCall(ctx, g.Name(), g.model, false)

	apiKey, err := g.creds.APIKey(ctx, credentials.ProviderOpenAI)
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
	model := resp.Model
	if model == "" {
		model = g.model
	}
	return &domaininference.Reply{
		Content:  content,
		Model:    model,
		Provider: g.Name(),
		Usage:    usage,
	}, nil
}

func (g *OpenAIGateway) Stream(ctx context.Context, req domaininference.Request) (domaininference.Stream, error) {
	ctx, call := startProviderCall(ctx, g.Name(), g.model, true)

	apiKey, err := g.creds.APIKey(ctx, credentials.ProviderOpenAI)
	if err != nil {
		call.end(err, nil)
		return nil, err
	}

	request := completionRequest(g.model, req)
	request.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	stream, err := g.client.CreateChatCompletionStream(ctx, apiKey, request)
	if err != nil {
		call.end(err, nil)
		return nil, err
	}
	return newObservedStream(stream, call), nil
}

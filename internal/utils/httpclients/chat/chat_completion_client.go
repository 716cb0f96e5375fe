package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"jan-chat/internal/infrastructure/logger"
	"jan-chat/internal/utils/httpclients"
	"jan-chat/internal/utils/platformerrors"
)

const (
	defaultRequestTimeout = 120 * time.Second
	dataPrefix            = "data: "
	doneMarker            = "[DONE]"
	scannerInitialBuffer  = 12 * 1024
	scannerMaxBuffer      = 10 * 1024 * 1024
)

// ChatCompletionClient talks to any OpenAI-compatible /chat/completions endpoint.
type ChatCompletionClient struct {
	client  *resty.Client
	baseURL string
	name    string
	headers map[string]string
	timeout time.Duration
}

func NewChatCompletionClient(client *resty.Client, name, baseURL string) *ChatCompletionClient {
	return &ChatCompletionClient{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		name:    name,
		headers: map[string]string{},
		timeout: defaultRequestTimeout,
	}
}

// WithHeader adds a header sent on every request. Empty values are skipped.
func (c *ChatCompletionClient) WithHeader(key, value string) *ChatCompletionClient {
	if strings.TrimSpace(key) != "" && value != "" {
		c.headers[key] = value
	}
	return c
}

// WithTimeout bounds each request, including the whole body of a stream.
func (c *ChatCompletionClient) WithTimeout(timeout time.Duration) *ChatCompletionClient {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

func (c *ChatCompletionClient) CreateChatCompletion(ctx context.Context, apiKey string, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request.Stream = false
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx, apiKey).
		SetBody(request).
		SetForceResponseContentType("application/json").
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, c.name+" request failed", err, "5e9a2c7f-1b3d-4f6e-8a0c-d2e4f6a8b0c1")
	}
	if resp.IsError() {
		return nil, httpclients.StatusError(ctx, c.name, resp.StatusCode(), resp.String(), "6fab3d80-2c4e-4a7f-9b1d-e3f5a7b9c1d2")
	}
	return &respBody, nil
}

// CreateChatCompletionStream opens a streaming completion. The caller must Close the stream.
func (c *ChatCompletionClient) CreateChatCompletionStream(ctx context.Context, apiKey string, request openai.ChatCompletionRequest) (*ChunkStream, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	request.Stream = true
	resp, err := c.prepareRequest(ctx, apiKey).
		SetBody(request).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		cancel()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, c.name+" streaming request failed", err, "70bc4e91-3d5f-4b80-8c2e-f4a6b8c0d2e3")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		cancel()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, c.name+" streaming request failed: empty response body", nil, "81cd5fa2-4e60-4c91-9d3f-a5b7c9d1e3f4")
	}
	if resp.IsError() {
		defer cancel()
		defer resp.RawResponse.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 4096))
		return nil, httpclients.StatusError(ctx, c.name, resp.StatusCode(), string(body), "92de6ab3-5f71-4da2-8e40-b6c8d0e2f4a5")
	}

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	return &ChunkStream{
		ctx:     ctx,
		name:    c.name,
		body:    resp.RawResponse.Body,
		scanner: scanner,
		cancel:  cancel,
	}, nil
}

func (c *ChatCompletionClient) prepareRequest(ctx context.Context, apiKey string) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}
	for key, value := range c.headers {
		req.SetHeader(key, value)
	}
	return req
}

func (c *ChatCompletionClient) endpoint(path string) string {
	if c.baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

// ChunkStream reads `data: ` lines of a chat completion stream until the [DONE] marker.
type ChunkStream struct {
	ctx     context.Context
	name    string
	body    io.ReadCloser
	scanner *bufio.Scanner
	cancel  context.CancelFunc

	content string
	usage   *openai.Usage
	err     error
	done    bool
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *openai.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Next advances to the next non-empty fragment.
func (s *ChunkStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		data, found := strings.CutPrefix(line, dataPrefix)
		if !found {
			data, found = strings.CutPrefix(line, "data:")
		}
		if !found {
			continue
		}
		data = strings.TrimSpace(data)
		if data == doneMarker {
			s.done = true
			return false
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log := logger.GetLogger()
			log.Warn().Err(err).Str("client", s.name).Msg("skipping malformed stream chunk")
			continue
		}
		if chunk.Error != nil {
			s.err = platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, s.name+" stream error: "+chunk.Error.Message, nil, "a3ef7bc4-6082-4eb3-9f51-c7d9e1f3a5b6")
			return false
		}
		if chunk.Usage != nil {
			s.usage = chunk.Usage
		}

		var content strings.Builder
		for _, choice := range chunk.Choices {
			content.WriteString(choice.Delta.Content)
		}
		if content.Len() == 0 {
			continue
		}
		s.content = content.String()
		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, s.name+" stream interrupted", err, "b4f08cd5-7193-4fc4-8a62-d8e0f2a4b6c7")
		return false
	}
	s.err = platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, s.name+" stream ended without "+doneMarker, nil, "c5a19de6-82a4-40d5-9b73-e9f1a3b5c7d8")
	return false
}

func (s *ChunkStream) Content() string {
	return s.content
}

func (s *ChunkStream) Err() error {
	return s.err
}

// Usage is the token usage reported in the stream, if any.
func (s *ChunkStream) Usage() *openai.Usage {
	return s.usage
}

func (s *ChunkStream) Close() error {
	s.cancel()
	return s.body.Close()
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

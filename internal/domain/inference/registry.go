package inference

import (
	"context"
	"strings"

	"jan-chat/internal/utils/platformerrors"
)

// Registry resolves model ids to the gateway that serves them. The set of
// gateways is fixed at startup.
type Registry struct {
	gateways     []Gateway
	defaultModel string
	streamModel  string
}

func NewRegistry(defaultModel string, streamModel string, gateways ...Gateway) *Registry {
	return &Registry{
		gateways:     gateways,
		defaultModel: defaultModel,
		streamModel:  streamModel,
	}
}

// DefaultModel is used when a request names no model.
func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// DefaultStreamModel is used when a streaming request names no model.
func (r *Registry) DefaultStreamModel() string {
	if r.streamModel == "" {
		return r.defaultModel
	}
	return r.streamModel
}

// Resolve returns the gateway for model and the model id it will be called with.
func (r *Registry) Resolve(ctx context.Context, model string) (Gateway, string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.defaultModel
	}
	for _, gateway := range r.gateways {
		if gateway.Supports(model) {
			return gateway, model, nil
		}
	}
	return nil, "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		"unsupported model: "+model, nil, "f1d5b8c3-0e27-4a49-9c6f-4b3a2d7e0f81", map[string]any{"model": model})
}

// ResolveStreaming is Resolve restricted to gateways that can stream.
func (r *Registry) ResolveStreaming(ctx context.Context, model string) (StreamingGateway, string, error) {
	if strings.TrimSpace(model) == "" {
		model = r.DefaultStreamModel()
	}
	gateway, resolved, err := r.Resolve(ctx, model)
	if err != nil {
		return nil, "", err
	}
	streaming, ok := gateway.(StreamingGateway)
	if !ok {
		return nil, "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"model does not support streaming: "+resolved, nil, "a2e6c9d4-1f38-4b5a-8d70-5c4b3e8f1a92", map[string]any{"model": resolved})
	}
	return streaming, resolved, nil
}

// Gateways returns the registered gateways in registration order.
func (r *Registry) Gateways() []Gateway {
	return append([]Gateway(nil), r.gateways...)
}

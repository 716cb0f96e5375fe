package inference

import (
	"context"
	"errors"

	"jan-chat/internal/utils/platformerrors"
)

// Classify maps any gateway error onto the provider error classes. Errors that
// carry no class are treated as upstream failures.
func Classify(err error) platformerrors.ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return platformerrors.ErrorTypeExternal
	}
	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		return platformerrors.ErrorTypeExternal
	}
	switch platformErr.Type {
	case platformerrors.ErrorTypeUnauthorized, platformerrors.ErrorTypeForbidden:
		return platformerrors.ErrorTypeUnauthorized
	case platformerrors.ErrorTypeRateLimited, platformerrors.ErrorTypeConfiguration, platformerrors.ErrorTypeValidation:
		return platformErr.Type
	default:
		return platformerrors.ErrorTypeExternal
	}
}

// IsRetryable reports whether repeating the same request could succeed.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case platformerrors.ErrorTypeRateLimited, platformerrors.ErrorTypeExternal:
		return true
	default:
		return false
	}
}

// ErrUnsupportedModel builds the configuration error returned for a model id no gateway serves.
func ErrUnsupportedModel(ctx context.Context, provider string, model string) *platformerrors.PlatformError {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeConfiguration,
		"unsupported model: "+model, nil, "e0c4a7b2-9d16-4f38-8b5e-3a2f1c6d9e70",
		map[string]any{"provider": provider, "model": model})
}

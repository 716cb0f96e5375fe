package httpclients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"jan-chat/internal/infrastructure/logger"
	"jan-chat/internal/utils/platformerrors"
)

type HTTPClientStartsAt struct{}

// NewClient returns a resty client that logs every round trip at debug level.
func NewClient(clientName string) *resty.Client {
	client := resty.New()
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		ctx := context.WithValue(r.Context(), HTTPClientStartsAt{}, time.Now())
		r.SetContext(ctx)
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		ctx := r.Request.Context()
		startTime, _ := ctx.Value(HTTPClientStartsAt{}).(time.Time)

		event := log.Debug().
			Str("request_id", platformerrors.RequestIDFromContext(ctx)).
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(startTime))
		if raw := r.Request.RawRequest; raw != nil {
			event = event.Str("method", raw.Method).Str("path", raw.URL.Path)
		}
		event.Msg("HTTP client request")
		return nil
	})
	return client
}

// StatusError converts a non-2xx upstream status into a typed platform error.
// 401 and 403 become UNAUTHORIZED, 429 becomes RATE_LIMITED, everything else EXTERNAL.
func StatusError(ctx context.Context, provider string, status int, body string, errorUUID string) *platformerrors.PlatformError {
	body = strings.TrimSpace(body)
	if len(body) > 512 {
		body = body[:512]
	}
	message := fmt.Sprintf("%s request failed with status %d", provider, status)
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}

	errorType := platformerrors.ErrorTypeExternal
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		errorType = platformerrors.ErrorTypeUnauthorized
	case http.StatusTooManyRequests:
		errorType = platformerrors.ErrorTypeRateLimited
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, errorType, message, nil, errorUUID, map[string]any{
		"provider":    provider,
		"http_status": status,
	})
}

package chathandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/interfaces/httpserver/responses"
	"jan-chat/internal/utils/platformerrors"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func TestWriteErrorLogsServerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)
	w := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(w)

	cause := platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "openai request failed with status 503: overloaded", nil, "")
	err := platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "model stream failed", cause, "9c3e7a15-2b84-4f06-8d1a-6e5f4c3b2a90")
	WriteError(reqCtx, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "9c3e7a15-2b84-4f06-8d1a-6e5f4c3b2a90", resp.Code)
	assert.Equal(t, "openai request failed with status 503: overloaded", resp.Details)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "INTERNAL", entry["error_type"])
	assert.Equal(t, "9c3e7a15-2b84-4f06-8d1a-6e5f4c3b2a90", entry["error_uuid"])
	assert.Equal(t, "model stream failed", entry["message"])
}

func TestWriteErrorDoesNotLogClientFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)
	w := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(w)

	WriteError(reqCtx, platformerrors.NewError(context.Background(), platformerrors.LayerDomain, platformerrors.ErrorTypeRateLimited, "openai rate limit", nil, ""))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Zero(t, buf.Len())
}

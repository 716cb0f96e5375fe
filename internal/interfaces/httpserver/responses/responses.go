package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-chat/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code,omitempty"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	Details       string `json:"details,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError writes err with the status mapped from its platform error type.
// message is used when the error carries no message of its own.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		HandleErrorWithStatus(reqCtx, platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType()), err, message)
		return
	}
	HandleErrorWithStatus(reqCtx, http.StatusInternalServerError, err, message)
}

// HandleErrorWithStatus handles errors with a custom status code
func HandleErrorWithStatus(reqCtx *gin.Context, statusCode int, err error, message string) {
	if err != nil {
		_ = reqCtx.Error(err)
	}

	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		errorMessage := domainErr.Message
		if errorMessage == "" {
			errorMessage = message
		}
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         errorMessage,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		})
		return
	}

	reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     platformerrors.RequestIDFromContext(reqCtx.Request.Context()),
	})
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, uuid)
	HandleErrorWithStatus(reqCtx, platformerrors.ErrorTypeToHTTPStatus(errorType), err, message)
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

package chat

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"jan-chat/internal/config"
	"jan-chat/internal/domain/chat"
	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/chathandler"
	chatrequests "jan-chat/internal/interfaces/httpserver/requests/chat"
	"jan-chat/internal/interfaces/httpserver/responses"
	"jan-chat/internal/utils/platformerrors"
)

// ChatRoute serves the chat endpoints. Authentication is optional: anonymous
// callers get replies but nothing is persisted.
type ChatRoute struct {
	handler     *chathandler.ChatHandler
	authHandler *authhandler.AuthHandler
	geminiModel string
}

func NewChatRoute(handler *chathandler.ChatHandler, authHandler *authhandler.AuthHandler, cfg *config.Config) *ChatRoute {
	return &ChatRoute{
		handler:     handler,
		authHandler: authHandler,
		geminiModel: cfg.GeminiModel,
	}
}

func (route *ChatRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/chat", route.authHandler.WithOptionalAuth(route.postChat)...)
	router.POST("/chat/stream", route.authHandler.WithOptionalAuth(route.postChatStream)...)
	router.POST("/gemini", route.authHandler.WithOptionalAuth(route.postGemini)...)
}

// postChat godoc
// @Summary Send a chat message
// @Description Sends one message with optional history to the selected model. When a conversation id is given and the caller is authenticated, both the message and the reply are stored.
// @Description Provider failures other than credential and rate-limit errors are answered with a fallback reply (fallback: true).
// @Tags Chat API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body chatrequests.ChatRequest true "Chat request"
// @Success 200 {object} chatresponses.ChatResponse
// @Failure 400 {object} responses.ErrorResponse "Missing message or unsupported model"
// @Failure 401 {object} responses.ErrorResponse "Invalid token or provider credential"
// @Failure 429 {object} responses.ErrorResponse "Provider rate limit"
// @Failure 500 {object} responses.ErrorResponse "Provider not configured"
// @Router /chat [post]
func (route *ChatRoute) postChat(reqCtx *gin.Context) {
	in, ok := route.bind(reqCtx)
	if !ok {
		return
	}
	route.handler.Send(reqCtx, "/chat", in)
}

// postChatStream godoc
// @Summary Stream a chat reply
// @Description Same input as POST /chat. Replies with Server-Sent Events: one data: {"content":"..."} event per fragment, then data: [DONE]. A failure mid-stream emits data: {"error":"..."} and ends without [DONE].
// @Tags Chat API
// @Security BearerAuth
// @Accept json
// @Produce text/event-stream
// @Param request body chatrequests.ChatRequest true "Chat request"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} responses.ErrorResponse "Missing message or model without streaming"
// @Failure 401 {object} responses.ErrorResponse "Invalid token or provider credential"
// @Router /chat/stream [post]
func (route *ChatRoute) postChatStream(reqCtx *gin.Context) {
	in, ok := route.bind(reqCtx)
	if !ok {
		return
	}
	route.handler.Stream(reqCtx, "/chat/stream", in)
}

// postGemini godoc
// @Summary Send a chat message to Gemini
// @Description As POST /chat with the model forced to the configured Gemini model.
// @Tags Chat API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body chatrequests.ChatRequest true "Chat request"
// @Success 200 {object} chatresponses.ChatResponse
// @Failure 400 {object} responses.ErrorResponse "Missing message"
// @Router /gemini [post]
func (route *ChatRoute) postGemini(reqCtx *gin.Context) {
	in, ok := route.bind(reqCtx)
	if !ok {
		return
	}
	in.ModelID = route.geminiModel
	route.handler.Send(reqCtx, "/gemini", in)
}

func (route *ChatRoute) bind(reqCtx *gin.Context) (chat.SendInput, bool) {
	var request chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request body", "6f7a8b9c-0d1e-4f2a-9b4c-5d6e7f8a9b0c")
		return chat.SendInput{}, false
	}

	in := chat.SendInput{
		Message:        request.Message,
		ConversationID: request.ConversationID,
		History:        request.Turns(),
		ModelID:        request.ModelID,
	}
	if user, ok := authhandler.GetUserFromContext(reqCtx); ok {
		in.OwnerID = user.ID
	}

	log.Debug().
		Str("path", reqCtx.FullPath()).
		Str("model", in.ModelID).
		Str("conversation_id", in.ConversationID).
		Int("history", len(in.History)).
		Bool("authenticated", in.OwnerID != "").
		Msg("chat request received")
	return in, true
}

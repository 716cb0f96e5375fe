package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/conversationhandler"
	conversationrequests "jan-chat/internal/interfaces/httpserver/requests/conversation"
	"jan-chat/internal/interfaces/httpserver/responses"
	"jan-chat/internal/utils/platformerrors"
)

type ConversationRoute struct {
	handler     *conversationhandler.ConversationHandler
	authHandler *authhandler.AuthHandler
}

func NewConversationRoute(handler *conversationhandler.ConversationHandler, authHandler *authhandler.AuthHandler) *ConversationRoute {
	return &ConversationRoute{
		handler:     handler,
		authHandler: authHandler,
	}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.authHandler.WithRequiredAuth(route.listConversations)...)
	conversations.POST("", route.authHandler.WithRequiredAuth(route.createConversation)...)
	conversations.GET("/:id", route.authHandler.WithRequiredAuth(route.getConversation)...)
	conversations.PATCH("/:id", route.authHandler.WithRequiredAuth(route.updateConversation)...)
	conversations.DELETE("/:id", route.authHandler.WithRequiredAuth(route.deleteConversation)...)
	conversations.GET("/:id/history", route.authHandler.WithRequiredAuth(route.getHistory)...)
	conversations.POST("/:id/messages", route.authHandler.WithRequiredAuth(route.addMessage)...)
}

func ownerID(reqCtx *gin.Context) (string, bool) {
	user, ok := authhandler.GetUserFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "Unauthorized", "7a8b9c0d-1e2f-4a3b-8c5d-6e7f8a9b0c1d")
		return "", false
	}
	return user.ID, true
}

// listConversations godoc
// @Summary List conversations
// @Description Lists the caller's conversations, most recently updated first.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Success 200 {object} conversationresponses.ConversationListResponse
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /conversations [get]
func (route *ConversationRoute) listConversations(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	resp, err := route.handler.ListConversations(reqCtx.Request.Context(), owner)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch conversations")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

// createConversation godoc
// @Summary Create a conversation
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body conversationrequests.CreateConversationRequest true "Conversation title"
// @Success 200 {object} conversationresponses.ConversationEnvelope
// @Failure 400 {object} responses.ErrorResponse "Title is required"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Router /conversations [post]
func (route *ConversationRoute) createConversation(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	var request conversationrequests.CreateConversationRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid request body", "8b9c0d1e-2f3a-4b4c-9d6e-7f8a9b0c1d2e")
		return
	}
	resp, err := route.handler.CreateConversation(reqCtx.Request.Context(), owner, request)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to create conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

// getConversation godoc
// @Summary Get a conversation with its messages
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} conversationresponses.ConversationDetailResponse
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [get]
func (route *ConversationRoute) getConversation(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	resp, err := route.handler.GetConversation(reqCtx.Request.Context(), owner, reqCtx.Param("id"))
	if err != nil {
		responses.HandleError(reqCtx, err, "Conversation not found")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

// updateConversation godoc
// @Summary Rename a conversation
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body conversationrequests.UpdateConversationRequest true "New title"
// @Success 200 {object} conversationresponses.ConversationEnvelope
// @Failure 400 {object} responses.ErrorResponse "Invalid title"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [patch]
func (route *ConversationRoute) updateConversation(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	var request conversationrequests.UpdateConversationRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Title is required", "9c0d1e2f-3a4b-4c5d-8e7f-8a9b0c1d2e3f")
		return
	}
	resp, err := route.handler.UpdateConversation(reqCtx.Request.Context(), owner, reqCtx.Param("id"), request)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to update conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

// deleteConversation godoc
// @Summary Delete a conversation
// @Description Deletes the conversation and its messages. Deleting an unknown id also succeeds.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.SuccessResponse
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Router /conversations/{id} [delete]
func (route *ConversationRoute) deleteConversation(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	if err := route.handler.DeleteConversation(reqCtx.Request.Context(), owner, reqCtx.Param("id")); err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}

// getHistory godoc
// @Summary Get recent messages
// @Description Returns the last limit messages (default 10) in chronological order.
// @Tags Conversations API
// @Security BearerAuth
// @Produce json
// @Param id path string true "Conversation ID"
// @Param limit query int false "Number of messages (1-200)"
// @Success 200 {object} conversationresponses.MessageListResponse
// @Failure 400 {object} responses.ErrorResponse "Invalid limit"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/history [get]
func (route *ConversationRoute) getHistory(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	var params conversationrequests.HistoryQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "0d1e2f3a-4b5c-4d6e-9f8a-9b0c1d2e3f4a")
		return
	}
	resp, err := route.handler.GetHistory(reqCtx.Request.Context(), owner, reqCtx.Param("id"), params)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fetch conversation history")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

// addMessage godoc
// @Summary Append a message
// @Tags Conversations API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body conversationrequests.AddMessageRequest true "Message"
// @Success 200 {object} conversationresponses.MessageEnvelope
// @Failure 400 {object} responses.ErrorResponse "Invalid role or empty content"
// @Failure 404 {object} responses.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [post]
func (route *ConversationRoute) addMessage(reqCtx *gin.Context) {
	owner, ok := ownerID(reqCtx)
	if !ok {
		return
	}
	var request conversationrequests.AddMessageRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "role must be one of user, assistant, system and content is required", "1e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b")
		return
	}
	resp, err := route.handler.AddMessage(reqCtx.Request.Context(), owner, reqCtx.Param("id"), request)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to add message")
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

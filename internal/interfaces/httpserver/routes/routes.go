package routes

import (
	"github.com/gin-gonic/gin"

	"jan-chat/internal/interfaces/httpserver/routes/chat"
	"jan-chat/internal/interfaces/httpserver/routes/conversation"
	"jan-chat/internal/interfaces/httpserver/routes/model"
)

// Route mounts every API endpoint on a router group.
type Route struct {
	chat         *chat.ChatRoute
	conversation *conversation.ConversationRoute
	model        *model.ModelRoute
}

func NewRoute(chat *chat.ChatRoute, conversation *conversation.ConversationRoute, model *model.ModelRoute) *Route {
	return &Route{
		chat:         chat,
		conversation: conversation,
		model:        model,
	}
}

func (r *Route) RegisterRouter(router gin.IRouter) {
	r.chat.RegisterRouter(router)
	r.conversation.RegisterRouter(router)
	r.model.RegisterRouter(router)
}

package routes

import (
	"github.com/google/wire"

	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/chathandler"
	"jan-chat/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/modelhandler"
	"jan-chat/internal/interfaces/httpserver/routes/chat"
	"jan-chat/internal/interfaces/httpserver/routes/conversation"
	"jan-chat/internal/interfaces/httpserver/routes/model"
)

var RouteProvider = wire.NewSet(
	// Handlers
	authhandler.NewAuthHandler,
	chathandler.NewChatHandler,
	conversationhandler.NewConversationHandler,
	modelhandler.NewModelHandler,

	// Routes
	chat.NewChatRoute,
	conversation.NewConversationRoute,
	model.NewModelRoute,
	NewRoute,
)
